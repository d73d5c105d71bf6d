package protocol

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeXDGMime struct {
	defaultEntry string
	calls        []string
	failQuery    bool
}

func (f *fakeXDGMime) run(name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, name+" "+strings.Join(args, " "))
	switch {
	case len(args) == 3 && args[0] == "query":
		if f.failQuery {
			return nil, errors.New("xdg-mime: not found")
		}
		return []byte(f.defaultEntry + "\n"), nil
	case len(args) == 3 && args[0] == "default":
		f.defaultEntry = args[1]
		return nil, nil
	}
	return nil, errors.New("unexpected command")
}

func useFakeXDGMime(t *testing.T, fake *fakeXDGMime) {
	t.Helper()
	original := runCommand
	runCommand = fake.run
	t.Cleanup(func() { runCommand = original })
}

func TestEnsureDefaultClientRegistersDesktopEntry(t *testing.T) {
	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)
	fake := &fakeXDGMime{}
	useFakeXDGMime(t, fake)

	require.NoError(t, EnsureDefaultClient("/opt/Rocket.Chat/rocketchat-desktop"))

	entry, err := os.ReadFile(filepath.Join(dataHome, "applications", desktopFileName))
	require.NoError(t, err)
	assert.Contains(t, string(entry), `Exec="/opt/Rocket.Chat/rocketchat-desktop" %u`)
	assert.Contains(t, string(entry), "MimeType=x-scheme-handler/rocketchat;")
	assert.Equal(t, desktopFileName, fake.defaultEntry)
}

func TestEnsureDefaultClientSkipsWhenRegistered(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	fake := &fakeXDGMime{}
	useFakeXDGMime(t, fake)

	require.NoError(t, EnsureDefaultClient("/usr/bin/rocketchat-desktop"))
	fake.calls = nil

	require.NoError(t, EnsureDefaultClient("/usr/bin/rocketchat-desktop"))
	assert.Equal(t, []string{"xdg-mime query default x-scheme-handler/rocketchat"}, fake.calls)
}

func TestEnsureDefaultClientRewritesMovedExecutable(t *testing.T) {
	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)
	fake := &fakeXDGMime{}
	useFakeXDGMime(t, fake)

	require.NoError(t, EnsureDefaultClient("/old/rocketchat-desktop"))
	require.NoError(t, EnsureDefaultClient("/new/rocketchat-desktop"))

	entry, err := os.ReadFile(filepath.Join(dataHome, "applications", desktopFileName))
	require.NoError(t, err)
	assert.Contains(t, string(entry), `Exec="/new/rocketchat-desktop" %u`)
}

func TestEnsureDefaultClientWhenQueryFails(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	fake := &fakeXDGMime{failQuery: true}
	useFakeXDGMime(t, fake)

	require.NoError(t, EnsureDefaultClient("/usr/bin/rocketchat-desktop"))
	assert.Equal(t, desktopFileName, fake.defaultEntry)
}

func TestExecArg(t *testing.T) {
	tests := []struct {
		arg, want string
	}{
		{"/usr/bin/rocketchat-desktop", `"/usr/bin/rocketchat-desktop"`},
		{"/opt/Rocket Chat/app", `"/opt/Rocket Chat/app"`},
		{"/opt/$HOME/app", `"/opt/\\$HOME/app"`},
		{"/opt/`id`/app", "\"/opt/\\\\`id\\\\`/app\""},
		{`/opt/say "hi"/app`, `"/opt/say \\"hi\\"/app"`},
		{`/opt/back\slash/app`, `"/opt/back\\\\slash/app"`},
		{"/opt/100%/app", `"/opt/100%%/app"`},
		{"/opt/caf\u00e9/app", "\"/opt/caf\u00e9/app\""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, execArg(tt.arg), tt.arg)
	}
}

func TestDesktopEntryEscapesShellCharacters(t *testing.T) {
	entry := string(desktopEntry(`/home/me/$apps/rocket"chat`))

	assert.Contains(t, entry, `Exec="/home/me/\\$apps/rocket\\"chat" %u`+"\n")
	assert.NotContains(t, entry, `\u00`)
}

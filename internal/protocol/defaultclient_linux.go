package protocol

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	desktopFileName = "rocketchat-desktop.desktop"
	mimeType        = "x-scheme-handler/" + Scheme
)

// runCommand is swapped out in tests
var runCommand = func(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

func isDefaultClient(executable string) (bool, error) {
	out, err := runCommand("xdg-mime", "query", "default", mimeType)
	if err != nil {
		return false, fmt.Errorf("xdg-mime query failed: %w", err)
	}
	if strings.TrimSpace(string(out)) != desktopFileName {
		return false, nil
	}

	// the registered entry must still launch this executable
	current, err := os.ReadFile(desktopFilePath())
	if err != nil {
		return false, nil
	}
	return bytes.Equal(current, desktopEntry(executable)), nil
}

func setAsDefaultClient(executable string) error {
	path := desktopFilePath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create applications directory: %w", err)
	}
	if err := os.WriteFile(path, desktopEntry(executable), 0644); err != nil {
		return fmt.Errorf("failed to write desktop entry: %w", err)
	}
	if _, err := runCommand("xdg-mime", "default", desktopFileName, mimeType); err != nil {
		return fmt.Errorf("xdg-mime default failed: %w", err)
	}
	return nil
}

func desktopFilePath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.TempDir()
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "applications", desktopFileName)
}

func desktopEntry(executable string) []byte {
	var b bytes.Buffer
	b.WriteString("[Desktop Entry]\n")
	b.WriteString("Type=Application\n")
	b.WriteString("Name=Rocket.Chat\n")
	fmt.Fprintf(&b, "Exec=%s %%u\n", execArg(executable))
	b.WriteString("Terminal=false\n")
	b.WriteString("NoDisplay=true\n")
	fmt.Fprintf(&b, "MimeType=%s;\n", mimeType)
	return b.Bytes()
}

// execArg quotes an Exec key argument for a desktop entry. Inside the double
// quotes a backslash escapes the quote, backtick, dollar and backslash itself.
// Readers unescape the value as a string before unquoting, so every backslash
// is written twice. A literal percent sign is written as "%%".
func execArg(arg string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range arg {
		switch r {
		case '"', '`', '$':
			b.WriteString(`\\`)
			b.WriteRune(r)
		case '\\':
			b.WriteString(`\\\\`)
		case '%':
			b.WriteString("%%")
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

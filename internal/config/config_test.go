package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matt0x6f/rocketchat-desktop/internal/constants"
)

func TestLoadMissingConfigUsesDefaults(t *testing.T) {
	loaded, err := Load(t.TempDir())
	require.NoError(t, err)
	cfg := loaded.Settings()

	assert.False(t, cfg.Debug)
	assert.Equal(t, DefaultAutoUpdate, cfg.AutoUpdate)
	assert.Equal(t, constants.DefaultUpdateFeedURL, cfg.UpdateFeedURL)
	assert.Equal(t, DefaultDisableHardwareAcceleration, cfg.DisableHardwareAcceleration)
	assert.Equal(t, DefaultNotifications, cfg.Notifications)
}

func TestLoadReadsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{
  "debug": true,
  "auto_update": false,
  "update_feed_url": "https://updates.example.com/latest"
}`), 0o600))

	loaded, err := Load(dir)
	require.NoError(t, err)
	cfg := loaded.Settings()

	assert.True(t, cfg.Debug)
	assert.False(t, cfg.AutoUpdate)
	assert.Equal(t, "https://updates.example.com/latest", cfg.UpdateFeedURL)
	assert.Equal(t, DefaultNotifications, cfg.Notifications)
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{not json`), 0o600))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Rocket.Chat")
	cfg, err := Load(dir)
	require.NoError(t, err)

	require.NoError(t, cfg.Update(func(s *Settings) {
		s.DisableHardwareAcceleration = true
		s.Notifications = false
	}))
	assert.FileExists(t, cfg.Path())

	reloaded, err := Load(dir)
	require.NoError(t, err)
	settings := reloaded.Settings()
	assert.True(t, settings.DisableHardwareAcceleration)
	assert.False(t, settings.Notifications)
	assert.True(t, settings.AutoUpdate)
}

func TestSettingsIsACopy(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	settings := cfg.Settings()
	settings.Notifications = false

	assert.True(t, cfg.Settings().Notifications)
}

func TestConcurrentUpdateAndRead(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "Rocket.Chat"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(enabled bool) {
			defer wg.Done()
			assert.NoError(t, cfg.Update(func(s *Settings) { s.Notifications = enabled }))
		}(i%2 == 0)
		go func() {
			defer wg.Done()
			_ = cfg.Settings().Notifications
		}()
	}
	wg.Wait()

	require.NoError(t, cfg.Update(func(s *Settings) { s.AutoUpdate = false }))
	reloaded, err := Load(filepath.Dir(cfg.Path()))
	require.NoError(t, err)
	assert.Equal(t, cfg.Settings(), reloaded.Settings())
}

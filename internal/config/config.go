package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"

	"github.com/matt0x6f/rocketchat-desktop/internal/constants"
)

const fileName = "config.json"

// Settings are the user preferences persisted in config.json
type Settings struct {
	Debug                       bool   `mapstructure:"debug"`
	AutoUpdate                  bool   `mapstructure:"auto_update"`
	UpdateFeedURL               string `mapstructure:"update_feed_url"`
	DisableHardwareAcceleration bool   `mapstructure:"disable_hardware_acceleration"`
	Notifications               bool   `mapstructure:"notifications"`
}

// Config guards the loaded Settings and writes them back to disk.
// It is safe for concurrent use.
type Config struct {
	mu       sync.RWMutex
	settings Settings

	dir string
	v   *viper.Viper
}

const (
	// DefaultAutoUpdate enables the release check at startup
	DefaultAutoUpdate = true
	// DefaultDisableHardwareAcceleration keeps GPU rendering on
	DefaultDisableHardwareAcceleration = false
	// DefaultNotifications enables desktop notifications
	DefaultNotifications = true
)

// Load reads config.json from dir. A missing file yields the defaults.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(dir)

	v.SetDefault("debug", false)
	v.SetDefault("auto_update", DefaultAutoUpdate)
	v.SetDefault("update_feed_url", constants.DefaultUpdateFeedURL)
	v.SetDefault("disable_hardware_acceleration", DefaultDisableHardwareAcceleration)
	v.SetDefault("notifications", DefaultNotifications)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &Config{
		settings: settings,
		dir:      dir,
		v:        v,
	}, nil
}

// Settings returns a copy of the current settings
func (c *Config) Settings() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// Update applies fn to the settings and saves them. The in-memory settings
// change even when writing the file fails.
func (c *Config) Update(fn func(*Settings)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.settings)
	return c.save()
}

// save writes the settings back to the directory they were loaded from
func (c *Config) save() error {
	if c.v == nil {
		return fmt.Errorf("config was not loaded")
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure config directory: %w", err)
	}

	c.v.Set("debug", c.settings.Debug)
	c.v.Set("auto_update", c.settings.AutoUpdate)
	c.v.Set("update_feed_url", c.settings.UpdateFeedURL)
	c.v.Set("disable_hardware_acceleration", c.settings.DisableHardwareAcceleration)
	c.v.Set("notifications", c.settings.Notifications)

	return c.v.WriteConfigAs(c.Path())
}

// Path returns the config file location
func (c *Config) Path() string {
	return filepath.Join(c.dir, fileName)
}

// Package userdata names the per-environment user data directory and moves
// data left behind by releases that shipped under the legacy product name.
package userdata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	cp "github.com/otiai10/copy"

	"github.com/matt0x6f/rocketchat-desktop/internal/logger"
)

// DirName returns the directory name for appName in env.
// Production uses the bare name; other environments get a suffix so they never share data.
func DirName(appName, env string) string {
	if env == "production" {
		return appName
	}
	return fmt.Sprintf("%s (%s)", appName, env)
}

// Path returns the user data directory under appData
func Path(appData, appName, env string) string {
	return filepath.Join(appData, DirName(appName, env))
}

// AppDataDir returns the per-user application data root
// (%AppData% on Windows, ~/Library/Application Support on macOS, $XDG_CONFIG_HOME on Linux).
func AppDataDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get app data directory: %w", err)
	}
	return dir, nil
}

// Migrate copies the legacy user data directory over target, overwriting
// files that exist in both, then removes the legacy directory.
// A missing legacy directory is not an error.
func Migrate(appData, legacyName, env, target string) error {
	legacy := Path(appData, legacyName, env)
	if _, err := os.Stat(legacy); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat legacy user data: %w", err)
	}

	logger.Log.Info().Str("from", legacy).Str("to", target).Msg("Migrating legacy user data")

	err := cp.Copy(legacy, target, cp.Options{
		OnDirExists: func(src, dest string) cp.DirExistsAction {
			return cp.Merge
		},
		PreserveTimes: true,
	})
	if err != nil {
		return fmt.Errorf("failed to copy legacy user data: %w", err)
	}

	if err := os.RemoveAll(legacy); err != nil {
		return fmt.Errorf("failed to remove legacy user data: %w", err)
	}
	return nil
}

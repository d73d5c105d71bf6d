package protocol

import (
	"fmt"

	"github.com/matt0x6f/rocketchat-desktop/internal/logger"
)

// EnsureDefaultClient registers executable as the handler for rocketchat:// links
// unless it already is one.
func EnsureDefaultClient(executable string) error {
	isDefault, err := isDefaultClient(executable)
	if err != nil {
		logger.Log.Debug().Err(err).Msg("Could not query default protocol client")
	}
	if isDefault {
		logger.Log.Debug().Str("scheme", Scheme).Msg("Already the default protocol client")
		return nil
	}

	if err := setAsDefaultClient(executable); err != nil {
		return fmt.Errorf("failed to register %s:// handler: %w", Scheme, err)
	}
	logger.Log.Info().Str("scheme", Scheme).Str("executable", executable).Msg("Registered as default protocol client")
	return nil
}

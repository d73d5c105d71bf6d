//go:build !linux && !windows && !darwin

package idle

import "time"

func idleTime() (time.Duration, error) {
	return 0, ErrUnsupported
}

// Package idle reports how long the user has been away from keyboard and mouse.
package idle

import (
	"errors"
	"regexp"
	"strconv"
	"time"
)

// ErrUnsupported is returned where no idle source is available
var ErrUnsupported = errors.New("idle time not supported on this platform")

// Time returns the time since the last user input
func Time() (time.Duration, error) {
	return idleTime()
}

var hidIdleTime = regexp.MustCompile(`"HIDIdleTime"\s*=\s*(\d+)`)

// parseHIDIdleTime reads the nanosecond HIDIdleTime counter from ioreg output
func parseHIDIdleTime(out []byte) (time.Duration, error) {
	match := hidIdleTime.FindSubmatch(out)
	if match == nil {
		return 0, errors.New("HIDIdleTime not found in ioreg output")
	}
	ns, err := strconv.ParseInt(string(match[1]), 10, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(ns), nil
}

// Package build provides build-time information about the application.
package build

import "runtime"

// These variables are set at build time via ldflags, e.g.
// -X github.com/matt0x6f/rocketchat-desktop/internal/build.Env=development
var (
	// Env is the build environment name ("production", "development", "test").
	Env = "production"

	// Version is the application version (e.g., "2.10.0").
	Version = "0.0.0"
)

// IsProduction returns true for release builds.
func IsProduction() bool {
	return Env == "production"
}

// UserAgent returns the user agent string for HTTP requests.
func UserAgent() string {
	if IsProduction() {
		return "Rocket.Chat-Desktop/" + Version + " (" + runtime.GOOS + ")"
	}
	return "Rocket.Chat-Desktop/" + Env + "/" + Version + " (" + runtime.GOOS + ")"
}

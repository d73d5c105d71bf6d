package constants

import "time"

// Application identity
const (
	// AppName is the product name, also used for the user data directory
	AppName = "Rocket.Chat"

	// LegacyAppName is the name older releases stored user data under
	LegacyAppName = "Rocket.Chat+"

	// AppUserModelID groups the app's windows and notifications on Windows
	AppUserModelID = "chat.rocket"

	// SingleInstanceID identifies the single instance lock shared by all launches
	SingleInstanceID = "chat.rocket.desktop"

	// DatabaseName is the sqlite file inside the user data directory
	DatabaseName = "rocketchat.db"

	// DefaultUpdateFeedURL is the release feed queried by the update check
	DefaultUpdateFeedURL = "https://api.github.com/repos/RocketChat/Rocket.Chat.Electron/releases/latest"
)

// Startup timing constants
const (
	// UpdateCheckDelay is the delay after startup before checking for updates
	UpdateCheckDelay = 5 * time.Second

	// UpdateCheckTimeout bounds the release feed request
	UpdateCheckTimeout = 30 * time.Second

	// CertificateCheckTimeout bounds the TLS handshake made when a server is added
	CertificateCheckTimeout = 15 * time.Second

	// ShutdownTimeout is how long shutdown waits for background work
	ShutdownTimeout = 5 * time.Second
)

package main

import (
	"context"
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/matt0x6f/rocketchat-desktop/internal/build"
	"github.com/matt0x6f/rocketchat-desktop/internal/certificate"
	"github.com/matt0x6f/rocketchat-desktop/internal/config"
	"github.com/matt0x6f/rocketchat-desktop/internal/constants"
	"github.com/matt0x6f/rocketchat-desktop/internal/events"
	"github.com/matt0x6f/rocketchat-desktop/internal/idle"
	"github.com/matt0x6f/rocketchat-desktop/internal/lifecycle"
	"github.com/matt0x6f/rocketchat-desktop/internal/logger"
	"github.com/matt0x6f/rocketchat-desktop/internal/protocol"
	"github.com/matt0x6f/rocketchat-desktop/internal/servers"
	"github.com/matt0x6f/rocketchat-desktop/internal/storage"
	"github.com/matt0x6f/rocketchat-desktop/internal/update"
	"github.com/matt0x6f/rocketchat-desktop/internal/userdata"
	"github.com/matt0x6f/rocketchat-desktop/internal/validation"
)

// App struct
type App struct {
	ctx          context.Context
	userDataPath string
	config       *config.Config
	storage      *storage.Storage
	eventBus     *events.EventBus
	hub          *lifecycle.Hub
	registry     *servers.Registry
	resolver     *protocol.Resolver
	verifier     *certificate.Verifier
	proxy        *servers.Proxy
	tasks        *lifecycle.Tasks
	mu           sync.RWMutex
}

// NewApp creates a new App application struct
func NewApp() (*App, error) {
	appData, err := userdata.AppDataDir()
	if err != nil {
		return nil, err
	}
	userDataPath := userdata.Path(appData, constants.AppName, build.Env)

	// Migration failures leave the legacy data where it is
	if err := userdata.Migrate(appData, constants.LegacyAppName, build.Env, userDataPath); err != nil {
		logger.Log.Debug().Err(err).Msg("Skipping legacy user data migration")
	}

	// Ensure directory exists
	if err := os.MkdirAll(userDataPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create user data directory: %w", err)
	}

	cfg, err := config.Load(userDataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Configure(cfg.Settings().Debug || !build.IsProduction())

	// Create storage
	stor, err := storage.NewStorage(filepath.Join(userDataPath, constants.DatabaseName))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Create event bus
	eventBus := events.NewEventBus()

	registry := servers.NewRegistry(stor, eventBus)
	resolver := protocol.NewResolver(registry)

	app := &App{
		userDataPath: userDataPath,
		config:       cfg,
		storage:      stor,
		eventBus:     eventBus,
		hub:          lifecycle.NewHub(),
		registry:     registry,
		resolver:     resolver,
		tasks:        lifecycle.NewTasks(),
	}
	app.verifier = certificate.NewVerifier(stor, app, eventBus)
	// Server content is loaded through the proxy so every connection passes the verifier
	app.proxy = servers.NewProxy(stor, app.verifier)

	// Every activation source ends in the resolver
	app.hub.Activate(resolver.ActivateLinks)
	// A second launch brings the existing window forward
	app.hub.OnSecondInstance(func([]string) { app.focusWindow() })

	// Subscribe to server events to forward to frontend
	eventBus.Subscribe(events.EventServerAdded, app)
	eventBus.Subscribe(events.EventServerActivated, app)
	eventBus.Subscribe(events.EventServerRemoved, app)
	// Subscribe to certificate and update events
	eventBus.Subscribe(events.EventCertificateTrusted, app)
	eventBus.Subscribe(events.EventCertificateError, app)
	eventBus.Subscribe(events.EventUpdateAvailable, app)

	logger.Log.Info().
		Str("env", build.Env).
		Str("version", build.Version).
		Str("user_data", userDataPath).
		Msg("App initialized")

	return app, nil
}

// startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) startup(ctx context.Context) {
	a.mu.Lock()
	a.ctx = ctx
	a.mu.Unlock()
	logger.Log.Info().Msg("App startup function called")

	// Links passed on the command line are queued until the DOM is ready
	a.hub.Launch(os.Args)

	a.tasks.Go("default protocol client", func(ctx context.Context) {
		executable, err := os.Executable()
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Could not resolve executable path")
			return
		}
		if err := protocol.EnsureDefaultClient(executable); err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to register protocol handler")
		}
	})

	if a.config.Settings().AutoUpdate {
		a.tasks.Go("update check", a.checkForUpdates)
	}
}

// domReady is called once the frontend can receive events
func (a *App) domReady(ctx context.Context) {
	logger.Log.Debug().Msg("DOM ready, flushing queued servers")
	a.registry.Ready()

	// Servers saved by earlier sessions go through the trust flow before the UI opens them
	a.tasks.Go("stored certificate checks", func(ctx context.Context) {
		stored, err := a.registry.Servers()
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to load servers for certificate checks")
			return
		}
		for _, server := range stored {
			if ctx.Err() != nil {
				return
			}
			a.checkCertificate(ctx, server.URL)
		}
	})
}

// shutdown is called when the app shuts down
func (a *App) shutdown(ctx context.Context) {
	logger.Log.Info().Msg("App shutdown initiated")

	// Cancel background work and wait for it to finish (with timeout)
	if !a.tasks.Stop(constants.ShutdownTimeout) {
		logger.Log.Warn().Msg("Timeout waiting for background tasks, continuing shutdown")
	}
	a.proxy.Close()

	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to close storage")
		}
	}

	logger.Log.Info().Msg("App shutdown complete")
}

func (a *App) runtimeCtx() context.Context {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ctx
}

// OnEvent implements the events.Subscriber interface to forward events to frontend
func (a *App) OnEvent(event events.Event) {
	ctx := a.runtimeCtx()
	// Ensure context is set before event emission
	if ctx == nil {
		logger.Log.Debug().Str("type", event.Type).Msg("OnEvent: context not yet initialized, skipping event")
		return
	}

	switch event.Type {
	case events.EventServerAdded:
		runtime.EventsEmit(ctx, "server-added", event.Data)
		a.goCheckCertificate(event)
		a.focusWindow()
	case events.EventServerActivated:
		runtime.EventsEmit(ctx, "server-activated", event.Data)
		a.goCheckCertificate(event)
		a.focusWindow()
	case events.EventServerRemoved:
		runtime.EventsEmit(ctx, "server-removed", event.Data)
	case events.EventCertificateTrusted:
		runtime.EventsEmit(ctx, "certificate-trusted", event.Data)
	case events.EventCertificateError:
		runtime.EventsEmit(ctx, "certificate-error", event.Data)
	case events.EventUpdateAvailable:
		runtime.EventsEmit(ctx, "update-available", event.Data)
	}
}

func (a *App) focusWindow() {
	ctx := a.runtimeCtx()
	if ctx == nil {
		return
	}
	runtime.WindowUnminimise(ctx)
	runtime.WindowShow(ctx)
}

func (a *App) goCheckCertificate(event events.Event) {
	url, ok := event.Data["url"].(string)
	if !ok {
		return
	}
	a.tasks.Go("certificate check", func(ctx context.Context) { a.checkCertificate(ctx, url) })
}

// checkCertificate runs an https server through the trust flow before the UI loads it
func (a *App) checkCertificate(ctx context.Context, url string) {
	ctx, cancel := context.WithTimeout(ctx, constants.CertificateCheckTimeout)
	defer cancel()

	if err := a.verifier.Check(ctx, url); err != nil {
		logger.Log.Warn().Err(err).Str("url", url).Msg("Certificate check failed")
	}
}

// checkForUpdates waits for the app to settle, then asks the release feed
func (a *App) checkForUpdates(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(constants.UpdateCheckDelay):
	}

	ctx, cancel := context.WithTimeout(ctx, constants.UpdateCheckTimeout)
	defer cancel()

	settings := a.config.Settings()
	checker := update.NewChecker(settings.UpdateFeedURL, build.Version, nil)
	release, newer, err := checker.Check(ctx)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Update check failed")
		return
	}
	if !newer {
		return
	}

	logger.Log.Info().Str("version", release.Version()).Msg("Update available")
	a.eventBus.EmitSync(events.NewEvent(events.EventUpdateAvailable, events.EventSourceSystem, map[string]interface{}{
		"version": release.Version(),
		"url":     release.HTMLURL,
	}))

	if a.config.Settings().Notifications {
		message := fmt.Sprintf("Version %s is available.", release.Version())
		if err := beeep.Notify(constants.AppName, message, ""); err != nil {
			logger.Log.Debug().Err(err).Msg("Failed to show update notification")
		}
	}
}

// ConfirmCertificate implements certificate.Prompter with a native dialog
func (a *App) ConfirmCertificate(host string, cert *x509.Certificate, reason error) bool {
	ctx := a.runtimeCtx()
	if ctx == nil {
		return false
	}

	message := fmt.Sprintf(
		"The certificate for %s could not be verified: %v\n\nIssuer: %s\nFingerprint (SHA-256): %s\n\nDo you want to trust it anyway?",
		host, reason, cert.Issuer.String(), certificate.Fingerprint(cert),
	)
	answer, err := runtime.MessageDialog(ctx, runtime.MessageDialogOptions{
		Type:          runtime.QuestionDialog,
		Title:         "Certificate error",
		Message:       message,
		Buttons:       []string{"Yes", "No"},
		DefaultButton: "No",
		CancelButton:  "No",
	})
	if err != nil {
		logger.Log.Error().Err(err).Str("host", host).Msg("Certificate dialog failed")
		return false
	}
	return answer == "Yes"
}

// AddServer adds a server entered in the UI
func (a *App) AddServer(url string) (*storage.Server, error) {
	return a.registry.Register(url)
}

// GetServers returns all servers
func (a *App) GetServers() ([]storage.Server, error) {
	return a.registry.Servers()
}

// RemoveServer removes a server
func (a *App) RemoveServer(url string) error {
	return a.registry.RemoveServer(url)
}

// RenameServer sets the display title of a server
func (a *App) RenameServer(url, title string) error {
	if err := validation.ValidateServerOrigin(url); err != nil {
		return err
	}
	return a.storage.SetServerTitle(servers.Normalize(url), title)
}

// ForgetCertificate removes the trusted certificate of host
func (a *App) ForgetCertificate(host string) error {
	if err := validation.ValidateHost(host); err != nil {
		return err
	}
	if err := a.storage.RemoveTrustedCertificate(host); err != nil {
		return err
	}
	a.proxy.Forget(host)
	return nil
}

// GetSystemIdleTime returns milliseconds since the last user input, 0 when unknown
func (a *App) GetSystemIdleTime() int64 {
	d, err := idle.Time()
	if err != nil {
		logger.Log.Debug().Err(err).Msg("Idle time unavailable")
		return 0
	}
	return d.Milliseconds()
}

// GetAppVersion returns the running version
func (a *App) GetAppVersion() string {
	return build.Version
}

// GetSettings returns the current settings
func (a *App) GetSettings() config.Settings {
	return a.config.Settings()
}

// SetNotifications toggles desktop notifications
func (a *App) SetNotifications(enabled bool) error {
	return a.config.Update(func(s *config.Settings) { s.Notifications = enabled })
}

// SetAutoUpdate toggles the update check at startup
func (a *App) SetAutoUpdate(enabled bool) error {
	return a.config.Update(func(s *config.Settings) { s.AutoUpdate = enabled })
}

// SetHardwareAcceleration toggles GPU use; it takes effect on the next launch
func (a *App) SetHardwareAcceleration(enabled bool) error {
	return a.config.Update(func(s *config.Settings) { s.DisableHardwareAcceleration = !enabled })
}

// Quit quits the application
func (a *App) Quit() {
	if ctx := a.runtimeCtx(); ctx != nil {
		runtime.Quit(ctx)
	}
}

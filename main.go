package main

import (
	"context"
	"embed"
	"fmt"
	"os"
	"os/signal"
	goruntime "runtime"
	"syscall"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	"github.com/wailsapp/wails/v2/pkg/options/windows"

	"github.com/matt0x6f/rocketchat-desktop/internal/constants"
	"github.com/matt0x6f/rocketchat-desktop/internal/logger"
	"github.com/matt0x6f/rocketchat-desktop/internal/platform"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	// Windows groups taskbar entries and notifications by this id; it must be set before any window exists
	if err := platform.SetAppUserModelID(constants.AppUserModelID); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to set app user model id")
	}

	// Create an instance of the app structure
	app, err := NewApp()
	if err != nil {
		println("Error initializing app:", err.Error())
		return
	}

	// Set up signal handling to ensure shutdown is called
	// This is a backup in case OnShutdown doesn't get called
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		fmt.Printf("Received signal: %v, initiating shutdown\n", sig)
		app.shutdown(context.Background())
		os.Exit(0)
	}()

	gpuDisabled := platform.HardwareAccelerationDisabled(goruntime.GOOS, app.config.Settings().DisableHardwareAcceleration)
	if gpuDisabled {
		logger.Log.Debug().Msg("Hardware acceleration disabled")
	}

	// Create application with options
	err = wails.Run(&options.App{
		Title:     constants.AppName,
		Width:     1000,
		Height:    600,
		MinWidth:  600,
		MinHeight: 400,
		// Closing the last window quits the app
		HideWindowOnClose: false,
		Menu:              platform.ApplicationMenu(goruntime.GOOS, constants.AppName, app.Quit),
		AssetServer: &assetserver.Options{
			Assets: assets,
			// Anything the bundle does not serve is server content under /server/<id>/
			Handler: app.proxy,
		},
		BackgroundColour:   &options.RGBA{R: 47, G: 52, B: 61, A: 1},
		SingleInstanceLock: app.hub.SingleInstanceLock(constants.SingleInstanceID),
		OnStartup:          app.startup,
		OnDomReady:         app.domReady,
		OnShutdown:         app.shutdown,
		Bind: []interface{}{
			app,
		},
		Mac: &mac.Options{
			About: &mac.AboutInfo{
				Title:   constants.AppName,
				Message: "Rocket.Chat desktop client",
			},
			OnUrlOpen: app.hub.OpenURL,
		},
		Windows: &windows.Options{
			WebviewGpuIsDisabled: gpuDisabled,
		},
		Linux: &linux.Options{
			ProgramName:      constants.AppName,
			WebviewGpuPolicy: platform.LinuxGpuPolicy(gpuDisabled),
		},
	})

	if err != nil {
		println("Error:", err.Error())
	}
}

package platform

import (
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"
)

// ApplicationMenu returns the menu installed before the web UI provides its own.
// Other platforms get no menu at all; macOS keeps a single Quit item so
// Cmd+Q works.
func ApplicationMenu(goos, appName string, quit func()) *menu.Menu {
	if goos != "darwin" {
		return nil
	}

	appMenu := menu.NewMenu()
	appMenu.AddText("Quit "+appName, keys.CmdOrCtrl("q"), func(_ *menu.CallbackData) {
		quit()
	})

	root := menu.NewMenu()
	root.Append(menu.SubMenu(appName, appMenu))
	return root
}

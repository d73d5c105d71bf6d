package idle

import (
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
)

func idleTime() (time.Duration, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return 0, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer conn.Close()

	// GNOME (Mutter) reports milliseconds
	var ms uint64
	mutter := conn.Object("org.gnome.Mutter.IdleMonitor", "/org/gnome/Mutter/IdleMonitor/Core")
	if err := mutter.Call("org.gnome.Mutter.IdleMonitor.GetIdletime", 0).Store(&ms); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}

	// freedesktop screensaver reports seconds
	var seconds uint32
	screensaver := conn.Object("org.freedesktop.ScreenSaver", "/org/freedesktop/ScreenSaver")
	if err := screensaver.Call("org.freedesktop.ScreenSaver.GetSessionIdleTime", 0).Store(&seconds); err != nil {
		return 0, fmt.Errorf("no idle monitor on session bus: %w", err)
	}
	return time.Duration(seconds) * time.Second, nil
}

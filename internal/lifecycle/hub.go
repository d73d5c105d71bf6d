// Package lifecycle fans application activation events out to registered
// callbacks. The Wails runtime feeds it: the initial launch, a second
// instance hitting the single instance lock, and macOS URL open events.
// It also tracks the background tasks started over the app's lifetime.
package lifecycle

import (
	"sync"

	"github.com/wailsapp/wails/v2/pkg/options"

	"github.com/matt0x6f/rocketchat-desktop/internal/logger"
)

// ArgsFunc receives activation arguments with the program path already stripped
type ArgsFunc func(args []string)

// URLFunc receives a single URL delivered by the OS
type URLFunc func(url string)

// Hub owns the activation callback lists
type Hub struct {
	mu             sync.RWMutex
	launch         []ArgsFunc
	secondInstance []ArgsFunc
	openURL        []URLFunc
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{}
}

// OnLaunch registers fn for the initial process launch
func (h *Hub) OnLaunch(fn ArgsFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.launch = append(h.launch, fn)
}

// OnSecondInstance registers fn for launches forwarded by a second instance
func (h *Hub) OnSecondInstance(fn ArgsFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.secondInstance = append(h.secondInstance, fn)
}

// OnOpenURL registers fn for OS URL open events
func (h *Hub) OnOpenURL(fn URLFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.openURL = append(h.openURL, fn)
}

// Launch dispatches the process argument vector; argv[0] is the program path
func (h *Hub) Launch(argv []string) {
	args := StripProgram(argv)
	logger.Log.Debug().Strs("args", args).Msg("Dispatching launch arguments")

	h.mu.RLock()
	callbacks := append([]ArgsFunc(nil), h.launch...)
	h.mu.RUnlock()

	for _, fn := range callbacks {
		fn(args)
	}
}

// SecondInstance dispatches arguments forwarded from another launch.
// They arrive without the program path.
func (h *Hub) SecondInstance(args []string) {
	logger.Log.Debug().Strs("args", args).Msg("Second instance launched")

	h.mu.RLock()
	callbacks := append([]ArgsFunc(nil), h.secondInstance...)
	h.mu.RUnlock()

	for _, fn := range callbacks {
		fn(args)
	}
}

// SecondInstanceLaunch adapts SecondInstance to options.SingleInstanceLock
func (h *Hub) SecondInstanceLaunch(data options.SecondInstanceData) {
	h.SecondInstance(data.Args)
}

// OpenURL dispatches a URL from the OS, used as mac.Options.OnUrlOpen
func (h *Hub) OpenURL(url string) {
	logger.Log.Debug().Str("url", url).Msg("Open URL event")

	h.mu.RLock()
	callbacks := append([]URLFunc(nil), h.openURL...)
	h.mu.RUnlock()

	for _, fn := range callbacks {
		fn(url)
	}
}

// SingleInstanceLock returns the Wails lock options that forward to this hub
func (h *Hub) SingleInstanceLock(uniqueID string) *options.SingleInstanceLock {
	return &options.SingleInstanceLock{
		UniqueId:               uniqueID,
		OnSecondInstanceLaunch: h.SecondInstanceLaunch,
	}
}

// Activate routes every activation source to activate.
// URL open events are wrapped into a one-element argument list.
func (h *Hub) Activate(activate ArgsFunc) {
	h.OnLaunch(activate)
	h.OnSecondInstance(activate)
	h.OnOpenURL(func(url string) {
		activate([]string{url})
	})
}

// StripProgram drops the program path from an argument vector
func StripProgram(argv []string) []string {
	if len(argv) <= 1 {
		return []string{}
	}
	return append([]string(nil), argv[1:]...)
}

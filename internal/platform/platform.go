// Package platform holds OS integration settings applied before the window opens.
package platform

import (
	"github.com/wailsapp/wails/v2/pkg/options/linux"
)

// HardwareAccelerationDisabled reports whether the webview should run without the GPU.
// Linux always runs without it; elsewhere the user setting decides.
func HardwareAccelerationDisabled(goos string, userDisabled bool) bool {
	return goos == "linux" || userDisabled
}

// LinuxGpuPolicy maps the hardware acceleration decision to the WebKitGTK policy
func LinuxGpuPolicy(disabled bool) linux.WebviewGpuPolicy {
	if disabled {
		return linux.WebviewGpuPolicyNever
	}
	return linux.WebviewGpuPolicyOnDemand
}

// SetAppUserModelID sets the explicit app user model id of the process.
// It only has an effect on Windows.
func SetAppUserModelID(id string) error {
	return setAppUserModelID(id)
}

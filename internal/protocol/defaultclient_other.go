//go:build !linux && !windows

package protocol

// The macOS bundle declares the scheme in Info.plist (CFBundleURLTypes),
// so there is nothing to register at runtime.

func isDefaultClient(string) (bool, error) {
	return true, nil
}

func setAsDefaultClient(string) error {
	return nil
}

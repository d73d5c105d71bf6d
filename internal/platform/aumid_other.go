//go:build !windows

package platform

func setAppUserModelID(string) error {
	return nil
}

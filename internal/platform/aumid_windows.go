package platform

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	shell32                                     = windows.NewLazySystemDLL("shell32.dll")
	procSetCurrentProcessExplicitAppUserModelID = shell32.NewProc("SetCurrentProcessExplicitAppUserModelID")
)

func setAppUserModelID(id string) error {
	ptr, err := windows.UTF16PtrFromString(id)
	if err != nil {
		return err
	}
	hr, _, _ := procSetCurrentProcessExplicitAppUserModelID.Call(uintptr(unsafe.Pointer(ptr)))
	if hr != 0 {
		return fmt.Errorf("SetCurrentProcessExplicitAppUserModelID failed: %w", windows.Errno(hr))
	}
	return nil
}

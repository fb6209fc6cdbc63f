//go:build windows

package input

import (
	"fmt"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
)

var (
	user32             = syscall.NewLazyDLL("user32.dll")
	procEnumWindows    = user32.NewProc("EnumWindows")
	procGetWindowTextW = user32.NewProc("GetWindowTextW")
)

// WindowActivator brings windows forward with SetForegroundWindow
type WindowActivator struct{}

// NewWindowActivator creates a window activator
func NewWindowActivator() *WindowActivator {
	return &WindowActivator{}
}

// ActivateWindow implements Activator
func (WindowActivator) ActivateWindow(hwnd uintptr) error {
	if hwnd == 0 {
		return nil
	}
	h := win.HWND(hwnd)
	if win.IsIconic(h) {
		win.ShowWindow(h, win.SW_RESTORE)
	}
	if !win.SetForegroundWindow(h) {
		return fmt.Errorf("failed to activate window 0x%x", hwnd)
	}
	return nil
}

// FindWindow returns the first visible top level window with exactly this title
func FindWindow(title string) (uintptr, error) {
	var found win.HWND
	cb := syscall.NewCallback(func(hwnd win.HWND, lParam uintptr) uintptr {
		if !win.IsWindowVisible(hwnd) {
			return 1
		}
		buf := make([]uint16, 256)
		n, _, _ := procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
		if n > 0 && syscall.UTF16ToString(buf[:n]) == title {
			found = hwnd
			return 0 // stop enumeration
		}
		return 1
	})
	_, _, _ = procEnumWindows.Call(cb, 0)

	if found == 0 {
		return 0, fmt.Errorf("window not found: %s", title)
	}
	return uintptr(found), nil
}

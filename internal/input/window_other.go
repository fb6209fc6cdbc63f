//go:build !windows

package input

// WindowActivator is a no-op off windows
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
	return ErrUnsupported
}

// FindWindow is not supported off windows
func FindWindow(title string) (uintptr, error) {
	return 0, ErrUnsupported
}

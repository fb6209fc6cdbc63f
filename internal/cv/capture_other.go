//go:build !windows

package cv

import "errors"

// ErrGDIUnsupported is returned when GDI capture is requested off windows
var ErrGDIUnsupported = errors.New("gdi capture is only available on windows")

// NewGDICapturer is unavailable on this platform
func NewGDICapturer() (Capturer, error) {
	return nil, ErrGDIUnsupported
}

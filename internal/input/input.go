// Package input injects scroll steps and brings the captured window forward.
package input

import (
	"errors"
	"fmt"

	"jordanella.com/scrollshot/internal/config"
)

// ErrUnsupported is returned by injectors that need another platform
var ErrUnsupported = errors.New("input method not supported on this platform")

// Scroller advances the content under the capture region by one step
type Scroller interface {
	ScrollStep() error
}

// Activator brings a window to the foreground
type Activator interface {
	ActivateWindow(hwnd uintptr) error
}

// Noop scrolls nothing and activates nothing; the user drives the content
type Noop struct{}

// ScrollStep implements Scroller
func (Noop) ScrollStep() error { return nil }

// ActivateWindow implements Activator
func (Noop) ActivateWindow(uintptr) error { return nil }

// NewScroller builds the scroller selected in the config. The returned
// closer releases the device and is never nil.
func NewScroller(cfg *config.Config) (Scroller, func() error, error) {
	noClose := func() error { return nil }

	switch cfg.ScrollMethod {
	case config.ScrollMethodSerial:
		s, err := OpenSerialScroller(cfg.SerialPort, cfg.BaudRate, cfg.SerialX)
		if err != nil {
			return nil, noClose, err
		}
		return s, s.Close, nil
	case config.ScrollMethodKeys:
		s, err := NewKeyScroller(cfg.ScrollKey)
		if err != nil {
			return nil, noClose, err
		}
		return s, noClose, nil
	case config.ScrollMethodNone:
		return Noop{}, noClose, nil
	default:
		return nil, noClose, fmt.Errorf("unknown scroll method: %q", cfg.ScrollMethod)
	}
}

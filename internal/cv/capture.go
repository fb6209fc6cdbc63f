package cv

import (
	"fmt"
	"strings"
)

// Capturer grabs one frame of a fixed screen rectangle
type Capturer interface {
	CaptureRect(region Region) (*Frame, error)
}

// CaptureMethod defines how frames are captured
type CaptureMethod int

const (
	// CaptureMethodScreen captures through the portable screenshot library
	CaptureMethodScreen CaptureMethod = iota
	// CaptureMethodGDI captures straight from the desktop DC (windows only, native BGRA)
	CaptureMethodGDI
)

// String returns the config name of the method
func (m CaptureMethod) String() string {
	switch m {
	case CaptureMethodGDI:
		return "gdi"
	default:
		return "screen"
	}
}

// ParseCaptureMethod parses a config value, defaulting to screen capture
func ParseCaptureMethod(s string) CaptureMethod {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gdi":
		return CaptureMethodGDI
	default:
		return CaptureMethodScreen
	}
}

// NewCapturer returns the capturer for a method
func NewCapturer(method CaptureMethod) (Capturer, error) {
	switch method {
	case CaptureMethodGDI:
		return NewGDICapturer()
	case CaptureMethodScreen:
		return NewScreenCapturer(), nil
	default:
		return nil, fmt.Errorf("unknown capture method: %d", method)
	}
}

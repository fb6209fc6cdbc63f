package cv

import (
	"fmt"

	"github.com/kbinani/screenshot"
)

// ScreenCapturer captures rectangles with github.com/kbinani/screenshot
type ScreenCapturer struct{}

// NewScreenCapturer creates a portable screen capturer
func NewScreenCapturer() *ScreenCapturer {
	return &ScreenCapturer{}
}

// CaptureRect captures the region and converts it to BGRA
func (c *ScreenCapturer) CaptureRect(region Region) (*Frame, error) {
	if region.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrDegenerateRegion, region)
	}

	img, err := screenshot.CaptureRect(region.Rectangle())
	if err != nil {
		return nil, fmt.Errorf("failed to capture %s: %w", region, err)
	}

	return FrameFromRGBA(img), nil
}

// Package region supplies the capture rectangle for a session. Selection is
// non-interactive: a fixed rectangle from the command line or a named preset.
package region

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"jordanella.com/scrollshot/internal/cv"
)

// Selection is the rectangle to capture and the window that owns it.
// Window is zero when no window should be activated.
type Selection struct {
	Region      cv.Region
	Window      uintptr
	WindowTitle string
}

// Selector picks the capture rectangle. ok is false when the user backed out.
type Selector interface {
	Select(ctx context.Context) (sel Selection, ok bool, err error)
}

// Fixed always returns the same selection
type Fixed struct {
	selection Selection
}

// NewFixed creates a selector for a known rectangle
func NewFixed(r cv.Region) *Fixed {
	return &Fixed{selection: Selection{Region: r}}
}

// WithWindow attaches the window to activate before capturing
func (f *Fixed) WithWindow(hwnd uintptr, title string) *Fixed {
	f.selection.Window = hwnd
	f.selection.WindowTitle = title
	return f
}

// Select implements Selector
func (f *Fixed) Select(ctx context.Context) (Selection, bool, error) {
	if err := ctx.Err(); err != nil {
		return Selection{}, false, nil
	}
	return f.selection, true, nil
}

// Parse reads a rectangle written as "x,y,width,height"
func Parse(s string) (cv.Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return cv.Region{}, fmt.Errorf("region %q: expected x,y,width,height", s)
	}

	values := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return cv.Region{}, fmt.Errorf("region %q: %w", s, err)
		}
		values[i] = v
	}

	if values[2] <= 0 || values[3] <= 0 {
		return cv.Region{}, fmt.Errorf("region %q: width and height must be positive", s)
	}

	return cv.RegionFromSize(values[0], values[1], values[2], values[3]), nil
}

package cv

import (
	"fmt"
	"image"
)

// Region is a screen rectangle in virtual desktop coordinates.
// X2 and Y2 are exclusive.
type Region struct {
	X1, Y1, X2, Y2 int
}

// NewRegion creates a new region
func NewRegion(x1, y1, x2, y2 int) Region {
	return Region{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// RegionFromSize creates a region from its top-left corner and size
func RegionFromSize(x, y, width, height int) Region {
	return Region{X1: x, Y1: y, X2: x + width, Y2: y + height}
}

// Width returns the width of the region
func (r Region) Width() int {
	return r.X2 - r.X1
}

// Height returns the height of the region
func (r Region) Height() int {
	return r.Y2 - r.Y1
}

// Empty reports whether the region has no area
func (r Region) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Rectangle converts the region for use with image APIs
func (r Region) Rectangle() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

func (r Region) String() string {
	return fmt.Sprintf("%d,%d %dx%d", r.X1, r.Y1, r.Width(), r.Height())
}

// ValidateRegion rejects rectangles the matcher cannot work with
func (m *Matcher) ValidateRegion(r Region) error {
	if r.Empty() {
		return fmt.Errorf("%w: %s", ErrDegenerateRegion, r)
	}
	if _, _, err := m.CompareRect(r.Width(), r.Height()); err != nil {
		return err
	}
	if m.baselineIgnoreBottom(r.Height()) >= r.Height() {
		return fmt.Errorf("%w: height %d is inside the bottom band", ErrDegenerateRegion, r.Height())
	}
	return nil
}

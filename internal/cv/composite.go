package cv

import (
	"errors"
	"fmt"
)

// ErrNoNewContent means the frame added no rows below the composite.
// It is the normal end-of-content signal, not a failure.
var ErrNoNewContent = errors.New("frame contains no new content")

// Extend returns a new composite made of the composite's rows above the
// excluded bottom band followed by the frame's rows below the match.
//
// The input composite is never modified, so the caller keeps a valid last
// good image if a later step fails.
func Extend(composite, frame *Frame, m MatchResult) (*Frame, error) {
	if composite.Empty() || frame.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrDegenerateRegion)
	}
	if composite.Width != frame.Width {
		return nil, fmt.Errorf("%w: composite width %d, frame width %d", ErrSizeMismatch, composite.Width, frame.Width)
	}

	newRows := frame.Height - m.Index - 1
	if newRows <= 0 {
		return nil, ErrNoNewContent
	}
	if m.Index < -1 {
		return nil, fmt.Errorf("%w: match index %d", ErrInvalidBuffer, m.Index)
	}

	keep := composite.Height - m.IgnoreBottom
	if keep < 0 || m.IgnoreBottom < 0 {
		return nil, fmt.Errorf("%w: bottom band %d exceeds composite height %d", ErrDegenerateRegion, m.IgnoreBottom, composite.Height)
	}

	result := NewFrame(composite.Width, keep+newRows)

	// Packed composites copy as one block
	if composite.Stride == result.Stride {
		copy(result.Pix, composite.Pix[:keep*composite.Stride])
	} else {
		for y := 0; y < keep; y++ {
			copy(result.Row(y), composite.Row(y))
		}
	}

	for y := 0; y < newRows; y++ {
		copy(result.Row(keep+y), frame.Row(m.Index+1+y))
	}

	return result, nil
}

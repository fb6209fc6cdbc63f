package cv

import (
	"bytes"
	"errors"
	"fmt"
	"image"
)

// BytesPerPixel is fixed for every frame: 32bpp BGRA, the layout GetDIBits
// produces for a top-down 32-bit bitmap.
const BytesPerPixel = 4

var (
	// ErrSizeMismatch is returned when two frames that must share a width do not
	ErrSizeMismatch = errors.New("frame size mismatch")
	// ErrInvalidBuffer is returned when a pixel buffer is too small for its dimensions
	ErrInvalidBuffer = errors.New("invalid pixel buffer")
)

// Frame is an immutable snapshot of a rectangular BGRA pixel buffer.
//
// Row y occupies Pix[y*Stride : y*Stride+Width*4]. Stride may be larger than
// Width*4 when the capture source pads rows. Frames are never modified after
// they are produced; operations that change pixels return a new Frame.
type Frame struct {
	Width  int
	Height int
	Stride int
	Pix    []byte
}

// NewFrame allocates a zeroed frame with a tightly packed stride
func NewFrame(width, height int) *Frame {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	stride := width * BytesPerPixel
	return &Frame{
		Width:  width,
		Height: height,
		Stride: stride,
		Pix:    make([]byte, stride*height),
	}
}

// FrameFromBGRA wraps a raw BGRA buffer. The buffer is owned by the frame
// afterwards and must not be reused by the caller.
func FrameFromBGRA(width, height, stride int, pix []byte) (*Frame, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: negative dimensions %dx%d", ErrInvalidBuffer, width, height)
	}
	if stride < width*BytesPerPixel {
		return nil, fmt.Errorf("%w: stride %d < width %d * %d", ErrInvalidBuffer, stride, width, BytesPerPixel)
	}
	if height > 0 && len(pix) < stride*(height-1)+width*BytesPerPixel {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d stride %d", ErrInvalidBuffer, len(pix), width, height, stride)
	}
	return &Frame{Width: width, Height: height, Stride: stride, Pix: pix}, nil
}

// FrameFromRGBA converts a Go RGBA image (as returned by screen capture
// libraries) into a BGRA frame anchored at (0,0).
func FrameFromRGBA(img *image.RGBA) *Frame {
	bounds := img.Bounds()
	frame := NewFrame(bounds.Dx(), bounds.Dy())

	for y := 0; y < frame.Height; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+frame.Width*4]
		dst := frame.Row(y)
		for i := 0; i < len(dst); i += 4 {
			// RGBA -> BGRA
			dst[i] = src[i+2]
			dst[i+1] = src[i+1]
			dst[i+2] = src[i]
			dst[i+3] = src[i+3]
		}
	}

	return frame
}

// ToRGBA converts the frame back into an image.RGBA for encoding
func (f *Frame) ToRGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		src := f.Row(y)
		dst := img.Pix[y*img.Stride : y*img.Stride+f.Width*4]
		for i := 0; i < len(src); i += 4 {
			dst[i] = src[i+2]
			dst[i+1] = src[i+1]
			dst[i+2] = src[i]
			dst[i+3] = src[i+3]
		}
	}
	return img
}

// Bounds returns the frame rectangle anchored at the origin
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// Empty reports whether the frame has no pixels
func (f *Frame) Empty() bool {
	return f == nil || f.Width <= 0 || f.Height <= 0
}

// Row returns the visible bytes of row y (without stride padding).
// The returned slice aliases the frame and must be treated as read-only.
func (f *Frame) Row(y int) []byte {
	start := y * f.Stride
	return f.Pix[start : start+f.Width*BytesPerPixel]
}

// rowSpan returns the bytes of row y between pixel columns x0 and x1
func (f *Frame) rowSpan(y, x0, x1 int) []byte {
	start := y*f.Stride + x0*BytesPerPixel
	return f.Pix[start : start+(x1-x0)*BytesPerPixel]
}

// rowsEqual compares row ya of a with row yb of b over columns [x0, x1)
func rowsEqual(a *Frame, ya int, b *Frame, yb int, x0, x1 int) bool {
	return bytes.Equal(a.rowSpan(ya, x0, x1), b.rowSpan(yb, x0, x1))
}

// valid reports whether Pix holds every visible byte the dimensions promise
func (f *Frame) valid() bool {
	if f.Width < 0 || f.Height < 0 || f.Stride < f.Width*BytesPerPixel {
		return false
	}
	if f.Height == 0 {
		return true
	}
	return len(f.Pix) >= f.Stride*(f.Height-1)+f.Width*BytesPerPixel
}

// Clone returns a deep copy with a tightly packed stride
func (f *Frame) Clone() *Frame {
	clone := NewFrame(f.Width, f.Height)
	for y := 0; y < f.Height; y++ {
		copy(clone.Row(y), f.Row(y))
	}
	return clone
}

// String implements fmt.Stringer for log context
func (f *Frame) String() string {
	if f == nil {
		return "<nil frame>"
	}
	return fmt.Sprintf("%dx%d", f.Width, f.Height)
}

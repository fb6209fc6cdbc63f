package cv

import "bytes"

// AreIdentical reports whether two frames are bit-for-bit equal.
//
// Frames with different width, height or stride are never identical; the
// check happens before any pixel is read so mismatched buffers are safe.
// A frame that stops changing after a scroll step means the content has
// reached its end.
func AreIdentical(a, b *Frame) bool {
	if a == nil || b == nil {
		return false
	}
	if a.Width != b.Width || a.Height != b.Height || a.Stride != b.Stride {
		return false
	}
	if !a.valid() || !b.valid() {
		return false
	}

	// Tightly packed frames compare as a single block
	if a.Stride == a.Width*BytesPerPixel {
		n := a.Stride * a.Height
		return bytes.Equal(a.Pix[:n], b.Pix[:n])
	}

	for y := 0; y < a.Height; y++ {
		if !bytes.Equal(a.Row(y), b.Row(y)) {
			return false
		}
	}
	return true
}

// Package output persists finished composites.
package output

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"jordanella.com/scrollshot/internal/cv"
)

// fileTimeFormat sorts lexically and is valid in Windows file names
const fileTimeFormat = "2006-01-02_15-04-05"

// FileName returns the timestamped base name for a composite
func FileName(at time.Time, ext string) string {
	return fmt.Sprintf("scrollshot_%s.%s", at.Format(fileTimeFormat), ext)
}

// SavePNG writes the frame losslessly to path
func SavePNG(path string, frame *cv.Frame) error {
	if frame.Empty() {
		return fmt.Errorf("nothing to save: empty composite")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := png.Encode(f, frame.ToRGBA()); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to encode png: %w", err)
	}

	return f.Close()
}

// Writer saves composites into a directory, as PNG and optionally PDF
type Writer struct {
	dir string
	pdf bool
	now func() time.Time
}

// NewWriter creates a writer for dir
func NewWriter(dir string, pdf bool) *Writer {
	return &Writer{dir: dir, pdf: pdf, now: time.Now}
}

// Persist saves the composite and returns the PNG path. The PDF, when
// enabled, sits next to it with the same base name.
func (w *Writer) Persist(composite *cv.Frame) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	at := w.now()
	path := w.uniquePath(at, "png")
	if err := SavePNG(path, composite); err != nil {
		return "", err
	}

	if w.pdf {
		pdfPath := path[:len(path)-len(".png")] + ".pdf"
		if err := SavePDF(pdfPath, composite, filepath.Base(path)); err != nil {
			return path, err
		}
	}

	return path, nil
}

// uniquePath avoids overwriting a capture taken within the same second
func (w *Writer) uniquePath(at time.Time, ext string) string {
	path := filepath.Join(w.dir, FileName(at, ext))
	for i := 2; ; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
		path = filepath.Join(w.dir, fmt.Sprintf("scrollshot_%s_%d.%s", at.Format(fileTimeFormat), i, ext))
	}
}

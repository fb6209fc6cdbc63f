package output

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/jung-kurt/gofpdf"
	"jordanella.com/scrollshot/internal/cv"
)

const (
	pixelsPerInch = 96
	mmPerInch     = 25.4

	// maxPageRows keeps each page under the 5080mm PDF page limit
	maxPageRows = 18000
)

func pixelsToMm(pixels int) float64 {
	return float64(pixels) * mmPerInch / pixelsPerInch
}

// SavePDF writes the composite as a PDF at 96 DPI. Composites taller than one
// page allows are split across pages of the same width.
func SavePDF(path string, frame *cv.Frame, title string) error {
	if frame.Empty() {
		return fmt.Errorf("nothing to save: empty composite")
	}

	pages := pageSlices(frame.Height, maxPageRows)
	img := frame.ToRGBA()

	wMm := pixelsToMm(frame.Width)
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: wMm, Ht: pixelsToMm(pages[0][1] - pages[0][0])},
	})
	if title != "" {
		pdf.SetTitle(title, true)
	}

	for i, page := range pages {
		slice := img.SubImage(image.Rect(0, page[0], frame.Width, page[1]))

		var buf bytes.Buffer
		if err := png.Encode(&buf, slice); err != nil {
			return fmt.Errorf("failed to encode page %d: %w", i+1, err)
		}

		name := fmt.Sprintf("page%d", i)
		opt := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(name, opt, &buf)

		hMm := pixelsToMm(page[1] - page[0])
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: wMm, Ht: hMm})
		pdf.ImageOptions(name, 0, 0, wMm, hMm, false, opt, 0, "")
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

// pageSlices splits height rows into [start, end) ranges of at most perPage rows
func pageSlices(height, perPage int) [][2]int {
	var pages [][2]int
	for start := 0; start < height; start += perPage {
		end := start + perPage
		if end > height {
			end = height
		}
		pages = append(pages, [2]int{start, end})
	}
	return pages
}

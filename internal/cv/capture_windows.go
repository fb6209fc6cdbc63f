//go:build windows
// +build windows

package cv

import (
	"fmt"
	"syscall"
	"unsafe"
)

var (
	user32                     = syscall.NewLazyDLL("user32.dll")
	gdi32                      = syscall.NewLazyDLL("gdi32.dll")
	procGetDC                  = user32.NewProc("GetDC")
	procReleaseDC              = user32.NewProc("ReleaseDC")
	procCreateCompatibleDC     = gdi32.NewProc("CreateCompatibleDC")
	procCreateCompatibleBitmap = gdi32.NewProc("CreateCompatibleBitmap")
	procSelectObject           = gdi32.NewProc("SelectObject")
	procBitBlt                 = gdi32.NewProc("BitBlt")
	procDeleteDC               = gdi32.NewProc("DeleteDC")
	procDeleteObject           = gdi32.NewProc("DeleteObject")
	procGetDIBits              = gdi32.NewProc("GetDIBits")
)

const (
	SRCCOPY        = 0x00CC0020
	CAPTUREBLT     = 0x40000000
	BI_RGB         = 0
	DIB_RGB_COLORS = 0
)

// BITMAPINFOHEADER structure
type BITMAPINFOHEADER struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

// BITMAPINFO structure
type BITMAPINFO struct {
	BmiHeader BITMAPINFOHEADER
	BmiColors [1]uint32
}

// GDICapturer copies screen rectangles from the desktop DC. GetDIBits
// already yields top-down 32bpp BGRA, so the buffer becomes the frame as is.
type GDICapturer struct{}

// NewGDICapturer creates a desktop DC capturer
func NewGDICapturer() (Capturer, error) {
	if err := procBitBlt.Find(); err != nil {
		return nil, fmt.Errorf("gdi32 unavailable: %w", err)
	}
	return &GDICapturer{}, nil
}

// CaptureRect captures the region from the whole virtual desktop
func (c *GDICapturer) CaptureRect(region Region) (*Frame, error) {
	if region.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrDegenerateRegion, region)
	}
	width, height := region.Width(), region.Height()

	// Desktop DC
	hdcScreen, _, err := procGetDC.Call(0)
	if hdcScreen == 0 {
		return nil, fmt.Errorf("failed to get screen DC: %v", err)
	}
	defer procReleaseDC.Call(0, hdcScreen)

	hdcMem, _, err := procCreateCompatibleDC.Call(hdcScreen)
	if hdcMem == 0 {
		return nil, fmt.Errorf("failed to create compatible DC: %v", err)
	}
	defer procDeleteDC.Call(hdcMem)

	hBitmap, _, err := procCreateCompatibleBitmap.Call(hdcScreen, uintptr(width), uintptr(height))
	if hBitmap == 0 {
		return nil, fmt.Errorf("failed to create compatible bitmap: %v", err)
	}
	defer procDeleteObject.Call(hBitmap)

	_, _, _ = procSelectObject.Call(hdcMem, hBitmap)

	// Negative origins are valid on multi-monitor desktops
	ret, _, err := procBitBlt.Call(
		hdcMem,
		0, 0,
		uintptr(width), uintptr(height),
		hdcScreen,
		uintptr(int32(region.X1)), uintptr(int32(region.Y1)),
		SRCCOPY|CAPTUREBLT,
	)
	if ret == 0 {
		return nil, fmt.Errorf("BitBlt failed: %v", err)
	}

	var bi BITMAPINFO
	bi.BmiHeader.Size = uint32(unsafe.Sizeof(bi.BmiHeader))
	bi.BmiHeader.Width = int32(width)
	bi.BmiHeader.Height = -int32(height) // Negative for top-down bitmap
	bi.BmiHeader.Planes = 1
	bi.BmiHeader.BitCount = 32
	bi.BmiHeader.Compression = BI_RGB

	// 32bpp rows are always DWORD aligned
	stride := width * BytesPerPixel
	buffer := make([]byte, stride*height)

	ret, _, err = procGetDIBits.Call(
		hdcMem,
		hBitmap,
		0,
		uintptr(height),
		uintptr(unsafe.Pointer(&buffer[0])),
		uintptr(unsafe.Pointer(&bi)),
		DIB_RGB_COLORS,
	)
	if ret == 0 {
		return nil, fmt.Errorf("GetDIBits failed: %v", err)
	}

	return FrameFromBGRA(width, height, stride, buffer)
}

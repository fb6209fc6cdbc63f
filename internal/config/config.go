package config

import (
	"time"

	"jordanella.com/scrollshot/internal/cv"
)

// ScrollMethod selects how one scroll step is injected
type ScrollMethod string

const (
	// ScrollMethodSerial sends scroll commands to an Arduino HID over a serial port
	ScrollMethodSerial ScrollMethod = "serial"
	// ScrollMethodKeys presses a key (Down, PageDown) in the foreground window
	ScrollMethodKeys ScrollMethod = "keys"
	// ScrollMethodNone does not scroll; the user scrolls by hand
	ScrollMethodNone ScrollMethod = "none"
)

// Config holds every setting of a scrollshot run
type Config struct {
	// Capture
	CaptureMethod  cv.CaptureMethod
	StartDelay     time.Duration
	ScrollDelay    time.Duration
	MaxFrames      int
	ActivateWindow bool

	// Matching
	AutoIgnoreBottom bool
	MinIgnoreSide    int
	MinIgnoreBottom  int
	MinMatchLimit    int

	// Scroll
	ScrollMethod ScrollMethod
	SerialPort   string
	BaudRate     int
	SerialX      int
	ScrollKey    string

	// Output
	OutputDir string
	ExportPDF bool

	// History
	HistoryDriver string
	HistoryDSN    string
	RetentionDays int // Sessions older than this are pruned at startup (0 = keep all)

	// Logging
	LogLevel string
	LogDir   string
}

// MatchOptions converts the matching section into matcher options
func (c *Config) MatchOptions() cv.MatchOptions {
	opts := cv.DefaultMatchOptions()
	opts.AutoIgnoreBottom = c.AutoIgnoreBottom
	opts.MinIgnoreSide = c.MinIgnoreSide
	opts.MinIgnoreBottom = c.MinIgnoreBottom
	opts.MinMatchLimit = c.MinMatchLimit
	return opts
}

// HistoryEnabled reports whether sessions are recorded
func (c *Config) HistoryEnabled() bool {
	return c.HistoryDriver != "" && c.HistoryDSN != ""
}

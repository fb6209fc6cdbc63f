package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/ini.v1"
	"jordanella.com/scrollshot/internal/cv"
)

// LoadFromINI loads configuration from an INI file. Missing keys take the
// values from NewDefaultConfig.
func LoadFromINI(path string) (*Config, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	defaults := NewDefaultConfig()
	config := &Config{}

	// Capture
	section := cfg.Section("Capture")
	config.CaptureMethod = cv.ParseCaptureMethod(section.Key("method").MustString(defaults.CaptureMethod.String()))
	config.StartDelay = time.Duration(section.Key("start_delay_ms").MustInt(int(defaults.StartDelay/time.Millisecond))) * time.Millisecond
	config.ScrollDelay = time.Duration(section.Key("scroll_delay_ms").MustInt(int(defaults.ScrollDelay/time.Millisecond))) * time.Millisecond
	config.MaxFrames = section.Key("max_frames").MustInt(defaults.MaxFrames)
	config.ActivateWindow = section.Key("activate_window").MustBool(defaults.ActivateWindow)

	// Matching
	section = cfg.Section("Matching")
	config.AutoIgnoreBottom = section.Key("auto_ignore_bottom").MustBool(defaults.AutoIgnoreBottom)
	config.MinIgnoreSide = section.Key("min_ignore_side").MustInt(defaults.MinIgnoreSide)
	config.MinIgnoreBottom = section.Key("min_ignore_bottom").MustInt(defaults.MinIgnoreBottom)
	config.MinMatchLimit = section.Key("min_match_limit").MustInt(defaults.MinMatchLimit)

	// Scroll
	section = cfg.Section("Scroll")
	config.ScrollMethod = parseScrollMethod(section.Key("method").MustString(string(defaults.ScrollMethod)))
	config.SerialPort = section.Key("serial_port").MustString(defaults.SerialPort)
	config.BaudRate = section.Key("baud_rate").MustInt(defaults.BaudRate)
	config.SerialX = section.Key("serial_x").MustInt(defaults.SerialX)
	config.ScrollKey = section.Key("key").MustString(defaults.ScrollKey)

	// Output
	section = cfg.Section("Output")
	config.OutputDir = section.Key("dir").MustString(defaults.OutputDir)
	config.ExportPDF = section.Key("pdf").MustBool(defaults.ExportPDF)

	// History
	section = cfg.Section("History")
	config.HistoryDriver = section.Key("driver").MustString(defaults.HistoryDriver)
	config.HistoryDSN = section.Key("dsn").MustString(defaults.HistoryDSN)
	config.RetentionDays = section.Key("retention_days").MustInt(defaults.RetentionDays)

	// Logging
	section = cfg.Section("Logging")
	config.LogLevel = section.Key("level").MustString(defaults.LogLevel)
	config.LogDir = section.Key("dir").MustString(defaults.LogDir)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func parseScrollMethod(s string) ScrollMethod {
	switch ScrollMethod(strings.ToLower(strings.TrimSpace(s))) {
	case ScrollMethodSerial:
		return ScrollMethodSerial
	case ScrollMethodNone:
		return ScrollMethodNone
	default:
		return ScrollMethodKeys
	}
}

// Validate rejects settings the session cannot run with
func (c *Config) Validate() error {
	if c.StartDelay < 0 || c.ScrollDelay < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	if c.MaxFrames < 0 {
		return fmt.Errorf("max_frames must not be negative, got %d", c.MaxFrames)
	}
	if c.MinIgnoreSide < 0 || c.MinIgnoreBottom < 0 || c.MinMatchLimit < 0 {
		return fmt.Errorf("matching thresholds must not be negative")
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("retention_days must not be negative, got %d", c.RetentionDays)
	}
	if c.ScrollMethod == ScrollMethodSerial && c.SerialPort == "" {
		return fmt.Errorf("scroll method serial requires serial_port")
	}
	switch c.HistoryDriver {
	case "", "sqlite3", "mysql":
	default:
		return fmt.Errorf("unsupported history driver: %q", c.HistoryDriver)
	}
	return nil
}

// NewDefaultConfig creates a config with default values
func NewDefaultConfig() *Config {
	match := cv.DefaultMatchOptions()
	return &Config{
		CaptureMethod:    cv.CaptureMethodScreen,
		StartDelay:       500 * time.Millisecond,
		ScrollDelay:      300 * time.Millisecond,
		MaxFrames:        200,
		ActivateWindow:   true,
		AutoIgnoreBottom: match.AutoIgnoreBottom,
		MinIgnoreSide:    match.MinIgnoreSide,
		MinIgnoreBottom:  match.MinIgnoreBottom,
		MinMatchLimit:    match.MinMatchLimit,
		ScrollMethod:     ScrollMethodKeys,
		BaudRate:         9600,
		SerialX:          0,
		ScrollKey:        "down",
		OutputDir:        "captures",
		ExportPDF:        false,
		HistoryDriver:    "sqlite3",
		HistoryDSN:       "data/scrollshot.db",
		RetentionDays:    0,
		LogLevel:         "INFO",
		LogDir:           "logs",
	}
}

// SaveToINI saves configuration to an INI file
func SaveToINI(config *Config, path string) error {
	cfg := ini.Empty()

	// Capture
	section := cfg.Section("Capture")
	section.Key("method").SetValue(config.CaptureMethod.String())
	section.Key("start_delay_ms").SetValue(fmt.Sprintf("%d", config.StartDelay.Milliseconds()))
	section.Key("scroll_delay_ms").SetValue(fmt.Sprintf("%d", config.ScrollDelay.Milliseconds()))
	section.Key("max_frames").SetValue(fmt.Sprintf("%d", config.MaxFrames))
	section.Key("activate_window").SetValue(fmt.Sprintf("%t", config.ActivateWindow))

	// Matching
	section = cfg.Section("Matching")
	section.Key("auto_ignore_bottom").SetValue(fmt.Sprintf("%t", config.AutoIgnoreBottom))
	section.Key("min_ignore_side").SetValue(fmt.Sprintf("%d", config.MinIgnoreSide))
	section.Key("min_ignore_bottom").SetValue(fmt.Sprintf("%d", config.MinIgnoreBottom))
	section.Key("min_match_limit").SetValue(fmt.Sprintf("%d", config.MinMatchLimit))

	// Scroll
	section = cfg.Section("Scroll")
	section.Key("method").SetValue(string(config.ScrollMethod))
	section.Key("serial_port").SetValue(config.SerialPort)
	section.Key("baud_rate").SetValue(fmt.Sprintf("%d", config.BaudRate))
	section.Key("serial_x").SetValue(fmt.Sprintf("%d", config.SerialX))
	section.Key("key").SetValue(config.ScrollKey)

	// Output
	section = cfg.Section("Output")
	section.Key("dir").SetValue(config.OutputDir)
	section.Key("pdf").SetValue(fmt.Sprintf("%t", config.ExportPDF))

	// History
	section = cfg.Section("History")
	section.Key("driver").SetValue(config.HistoryDriver)
	section.Key("dsn").SetValue(config.HistoryDSN)
	section.Key("retention_days").SetValue(fmt.Sprintf("%d", config.RetentionDays))

	// Logging
	section = cfg.Section("Logging")
	section.Key("level").SetValue(config.LogLevel)
	section.Key("dir").SetValue(config.LogDir)

	return cfg.SaveTo(path)
}

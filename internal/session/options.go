package session

import (
	"time"

	"jordanella.com/scrollshot/internal/config"
	"jordanella.com/scrollshot/internal/cv"
)

// Options tunes a capture session
type Options struct {
	// StartDelay lets the activated window settle before the first capture
	StartDelay time.Duration
	// ScrollDelay lets content finish rendering after each scroll step
	ScrollDelay time.Duration
	// MaxFrames stops the session after this many captures (0 = no limit)
	MaxFrames int
	// ActivateWindow brings the selected window forward before capturing
	ActivateWindow bool

	Match cv.MatchOptions
}

// DefaultOptions returns the settings of a default config
func DefaultOptions() Options {
	return OptionsFromConfig(config.NewDefaultConfig())
}

// OptionsFromConfig maps the loaded config onto session options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		StartDelay:     cfg.StartDelay,
		ScrollDelay:    cfg.ScrollDelay,
		MaxFrames:      cfg.MaxFrames,
		ActivateWindow: cfg.ActivateWindow,
		Match:          cfg.MatchOptions(),
	}
}

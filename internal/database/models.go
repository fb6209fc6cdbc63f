package database

import (
	"time"
)

// CaptureSession is the history row of one capture session
type CaptureSession struct {
	ID     string `db:"id"`
	Region string `db:"region"`
	State  string `db:"state"`

	// Result
	Frames           int     `db:"frames"`
	Width            int     `db:"width"`
	Height           int     `db:"height"`
	BestMatchCount   int     `db:"best_match_count"`
	BestIgnoreBottom int     `db:"best_ignore_bottom"`
	Degraded         bool    `db:"degraded"`
	OutputPath       *string `db:"output_path"`
	ErrorMessage     *string `db:"error_message"`

	// Timestamps
	StartedAt  time.Time  `db:"started_at"`
	FinishedAt *time.Time `db:"finished_at"`
	DurationMs *int64     `db:"duration_ms"`
}

// SessionError is an error logged against a capture session
type SessionError struct {
	ID           int64     `db:"id"`
	SessionID    string    `db:"session_id"`
	Category     string    `db:"category"`
	ErrorMessage string    `db:"error_message"`
	Frame        int       `db:"frame"`
	OccurredAt   time.Time `db:"occurred_at"`
}

package session

import "errors"

// State is the lifecycle position of a capture session
type State int32

const (
	StateIdle State = iota
	StateSelecting
	StateCapturing
	StateStitching
	StateCompleted // Bottom of the content reached, or frame limit hit
	StateCancelled // Selection aborted or stop requested
	StateFailed    // Capture, scroll or stitch error; composite so far is kept
)

var stateNames = map[State]string{
	StateIdle:      "idle",
	StateSelecting: "selecting",
	StateCapturing: "capturing",
	StateStitching: "stitching",
	StateCompleted: "completed",
	StateCancelled: "cancelled",
	StateFailed:    "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether the session has ended
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

var (
	// ErrSelectionCancelled means no region was chosen. Not reported as a failure.
	ErrSelectionCancelled = errors.New("region selection cancelled")
	// ErrStopped means Stop was called or the context ended mid capture
	ErrStopped = errors.New("capture stopped")
	// ErrAlreadyRunning is returned when Start is called on a running session
	ErrAlreadyRunning = errors.New("capture session already running")
)

package events

import "time"

// EventType represents different types of events in the system
type EventType string

const (
	// Capture session lifecycle
	EventTypeSessionStarted   EventType = "session.started"
	EventTypeSessionProgress  EventType = "session.progress"
	EventTypeSessionCompleted EventType = "session.completed"
	EventTypeSessionFailed    EventType = "session.failed"
	EventTypeSessionCancelled EventType = "session.cancelled"

	// Per-frame events
	EventTypeFrameSaved   EventType = "frame.saved"
	EventTypeFrameMatched EventType = "frame.matched"

	// Output events
	EventTypeCompositeReady EventType = "composite.ready"

	// Error events
	EventTypeError EventType = "error"

	// EventTypeAll subscribes a handler to every event type
	EventTypeAll EventType = "*"
)

// Event represents a system event with metadata
type Event struct {
	Type      EventType              // Type of event
	Source    string                 // Component that emitted event (e.g., "session", "output")
	Timestamp time.Time              // When the event occurred
	Data      map[string]interface{} // Event-specific data
}

// EventHandler is a function that processes an event
type EventHandler func(Event)

// SubscriptionID uniquely identifies a subscription
type SubscriptionID int64

// EventBus defines the interface for event pub/sub
type EventBus interface {
	// Subscribe registers a handler for a specific event type, or EventTypeAll
	Subscribe(eventType EventType, handler EventHandler) SubscriptionID

	// Unsubscribe removes a subscription by ID
	Unsubscribe(id SubscriptionID)

	// Publish sends an event to all subscribers (blocking)
	Publish(event Event)

	// Stop stops the event bus and drains remaining events
	Stop()
}

// Helper functions to create common events

// NewSessionStartedEvent creates a session started event
func NewSessionStartedEvent(sessionID, region string) Event {
	return Event{
		Type:      EventTypeSessionStarted,
		Source:    "session",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"session_id": sessionID,
			"region":     region,
		},
	}
}

// NewSessionProgressEvent creates a progress event carrying a human readable status line
func NewSessionProgressEvent(sessionID, message string) Event {
	return Event{
		Type:      EventTypeSessionProgress,
		Source:    "session",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"session_id": sessionID,
			"message":    message,
		},
	}
}

// NewFrameSavedEvent creates a frame saved event
func NewFrameSavedEvent(sessionID string, frames, width, height int) Event {
	return Event{
		Type:      EventTypeFrameSaved,
		Source:    "session",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"session_id": sessionID,
			"frames":     frames,
			"width":      width,
			"height":     height,
		},
	}
}

// NewFrameMatchedEvent creates a frame matched event
func NewFrameMatchedEvent(sessionID string, count, index, ignoreBottom int, fallback bool) Event {
	return Event{
		Type:      EventTypeFrameMatched,
		Source:    "matcher",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"session_id":    sessionID,
			"count":         count,
			"index":         index,
			"ignore_bottom": ignoreBottom,
			"fallback":      fallback,
		},
	}
}

// NewCompositeReadyEvent creates a composite ready event
func NewCompositeReadyEvent(sessionID, path string, width, height int) Event {
	return Event{
		Type:      EventTypeCompositeReady,
		Source:    "output",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"session_id": sessionID,
			"path":       path,
			"width":      width,
			"height":     height,
		},
	}
}

// NewSessionCompletedEvent creates a session completed event
func NewSessionCompletedEvent(sessionID string, frames, height int) Event {
	return Event{
		Type:      EventTypeSessionCompleted,
		Source:    "session",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"session_id": sessionID,
			"frames":     frames,
			"height":     height,
		},
	}
}

// NewSessionFailedEvent creates a session failed event. degraded marks a
// stitch failure whose partial composite was still saved.
func NewSessionFailedEvent(sessionID string, frames int, err error, degraded bool) Event {
	return Event{
		Type:      EventTypeSessionFailed,
		Source:    "session",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"session_id": sessionID,
			"frames":     frames,
			"error":      err.Error(),
			"degraded":   degraded,
		},
	}
}

// NewSessionCancelledEvent creates a session cancelled event
func NewSessionCancelledEvent(sessionID string, frames int) Event {
	return Event{
		Type:      EventTypeSessionCancelled,
		Source:    "session",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"session_id": sessionID,
			"frames":     frames,
		},
	}
}

// NewErrorEvent creates an error event
func NewErrorEvent(source, component string, err error, metadata map[string]interface{}) Event {
	data := map[string]interface{}{
		"source":    source,
		"component": component,
		"error":     err.Error(),
	}

	// Merge metadata
	for k, v := range metadata {
		data[k] = v
	}

	return Event{
		Type:      EventTypeError,
		Source:    source,
		Timestamp: time.Now(),
		Data:      data,
	}
}

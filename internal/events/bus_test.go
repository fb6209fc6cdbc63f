package events

import (
	"errors"
	"sync"
	"testing"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]EventType, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}

func TestEventBusDeliversInOrder(t *testing.T) {
	bus := NewEventBus(16)

	all := &recorder{}
	progress := &recorder{}
	bus.Subscribe(EventTypeAll, all.handle)
	bus.Subscribe(EventTypeSessionProgress, progress.handle)

	bus.Publish(NewSessionStartedEvent("s1", "0,0 100x50"))
	bus.Publish(NewSessionProgressEvent("s1", "Capturing..."))
	bus.Publish(NewFrameSavedEvent("s1", 1, 100, 50))
	bus.Publish(NewSessionCompletedEvent("s1", 1, 50))

	// Stop drains the queue before returning
	bus.Stop()

	want := []EventType{
		EventTypeSessionStarted,
		EventTypeSessionProgress,
		EventTypeFrameSaved,
		EventTypeSessionCompleted,
	}
	got := all.types()
	if len(got) != len(want) {
		t.Fatalf("Expected %d events, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	if len(progress.types()) != 1 {
		t.Errorf("Expected 1 progress event, got %d", len(progress.types()))
	}
	if msg := progress.events[0].Data["message"]; msg != "Capturing..." {
		t.Errorf("Expected progress message, got %v", msg)
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus(4)

	r := &recorder{}
	id := bus.Subscribe(EventTypeError, r.handle)
	if bus.GetSubscriberCount(EventTypeError) != 1 {
		t.Fatalf("Expected 1 subscriber, got %d", bus.GetSubscriberCount(EventTypeError))
	}

	bus.Unsubscribe(id)
	bus.Publish(NewErrorEvent("session", "capture", errors.New("boom"), nil))
	bus.Stop()

	if len(r.types()) != 0 {
		t.Errorf("Expected no events after unsubscribe, got %d", len(r.types()))
	}
}

func TestEventBusRecoversHandlerPanic(t *testing.T) {
	bus := NewEventBus(4)

	r := &recorder{}
	bus.Subscribe(EventTypeSessionFailed, func(Event) { panic("handler bug") })
	bus.Subscribe(EventTypeSessionFailed, r.handle)

	bus.Publish(NewSessionFailedEvent("s1", 3, errors.New("no overlap"), true))
	bus.Stop()

	if len(r.types()) != 1 {
		t.Fatalf("Expected the second handler to run, got %d events", len(r.types()))
	}
	if r.events[0].Data["error"] != "no overlap" {
		t.Errorf("Expected error text in event data, got %v", r.events[0].Data["error"])
	}
}

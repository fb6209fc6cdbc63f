package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"jordanella.com/scrollshot/internal/cv"
	"jordanella.com/scrollshot/internal/database"
	"jordanella.com/scrollshot/internal/events"
	"jordanella.com/scrollshot/internal/region"
)

const (
	testWidth  = 100
	testHeight = 50
)

// docFrame renders document rows [first, first+height) with a row-unique color
func docFrame(first, height int, tint byte) *cv.Frame {
	f := cv.NewFrame(testWidth, height)
	for y := 0; y < height; y++ {
		doc := first + y
		row := f.Row(y)
		for x := 0; x < len(row); x += cv.BytesPerPixel {
			row[x] = byte(doc)
			row[x+1] = byte(doc >> 8)
			row[x+2] = tint
			row[x+3] = 0xff
		}
	}
	return f
}

// scriptedCapturer returns its frames in order, then repeats the last one
type scriptedCapturer struct {
	mu     sync.Mutex
	frames []*cv.Frame
	failAt int // 1-based call that fails, 0 for never
	calls  int
}

func (c *scriptedCapturer) CaptureRect(r cv.Region) (*cv.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.failAt > 0 && c.calls == c.failAt {
		return nil, errors.New("device lost")
	}
	i := c.calls - 1
	if i >= len(c.frames) {
		i = len(c.frames) - 1
	}
	return c.frames[i], nil
}

type countingScroller struct {
	steps int
	err   error
}

func (s *countingScroller) ScrollStep() error {
	if s.err != nil {
		return s.err
	}
	s.steps++
	return nil
}

type recordingPersister struct {
	saved []*cv.Frame
	err   error
}

func (p *recordingPersister) Persist(composite *cv.Frame) (string, error) {
	p.saved = append(p.saved, composite)
	if p.err != nil {
		return "", p.err
	}
	return "out.png", nil
}

type cancelledSelector struct{}

func (cancelledSelector) Select(ctx context.Context) (region.Selection, bool, error) {
	return region.Selection{}, false, nil
}

func testOptions() Options {
	return Options{Match: cv.DefaultMatchOptions()}
}

func newTestSession(capturer cv.Capturer, scroller *countingScroller, persister *recordingPersister) *Session {
	deps := Dependencies{
		Selector: region.NewFixed(cv.RegionFromSize(0, 0, testWidth, testHeight)),
		Capturer: capturer,
		Scroller: scroller,
	}
	if persister != nil {
		deps.Persister = persister
	}
	return New(deps, testOptions())
}

// assertDocRows checks that composite row y shows document row y
func assertDocRows(t *testing.T, composite *cv.Frame, rows int) {
	t.Helper()
	if composite == nil {
		t.Fatal("Expected a composite")
	}
	if composite.Height != rows {
		t.Fatalf("Expected composite height %d, got %d", rows, composite.Height)
	}
	want := docFrame(0, rows, 0x5a)
	if !cv.AreIdentical(composite, want) {
		t.Error("Composite does not reproduce the document")
	}
}

func TestSessionStitchesUntilContentStops(t *testing.T) {
	frame2 := docFrame(20, testHeight, 0x5a)
	capturer := &scriptedCapturer{frames: []*cv.Frame{docFrame(0, testHeight, 0x5a), frame2, frame2}}
	scroller := &countingScroller{}
	persister := &recordingPersister{}

	var progress []string
	saved := 0
	var ready *cv.Frame

	s := newTestSession(capturer, scroller, persister).WithHooks(Hooks{
		OnProgress:   func(msg string) { progress = append(progress, msg) },
		OnFrameSaved: func(*cv.Frame) { saved++ },
		OnReady:      func(f *cv.Frame) { ready = f },
	})

	result := s.Start(context.Background())

	if result.State != StateCompleted {
		t.Fatalf("Expected completed, got %s (%v)", result.State, result.Err)
	}
	if result.Err != nil {
		t.Errorf("Expected no error, got %v", result.Err)
	}
	if result.Frames != 3 {
		t.Errorf("Expected 3 frames, got %d", result.Frames)
	}
	assertDocRows(t, result.Composite, 70)

	if scroller.steps != 2 {
		t.Errorf("Expected 2 scroll steps, got %d", scroller.steps)
	}
	if saved != 2 {
		t.Errorf("Expected 2 frame saved notifications, got %d", saved)
	}
	if ready != result.Composite {
		t.Error("OnReady did not receive the final composite")
	}
	if len(persister.saved) != 1 || result.OutputPath != "out.png" {
		t.Errorf("Expected one persisted composite at out.png, got %d at %q", len(persister.saved), result.OutputPath)
	}
	if len(progress) == 0 || progress[len(progress)-1] != "Capture complete" {
		t.Errorf("Unexpected progress messages: %v", progress)
	}

	best := s.Best()
	if best.Count != 25 || best.Index != 24 {
		t.Errorf("Expected best match count 25 index 24, got %+v", best)
	}
	if result.Best != best {
		t.Errorf("Result best %+v differs from session best %+v", result.Best, best)
	}
	if s.State() != StateCompleted || s.IsCapturing() {
		t.Errorf("Expected idle completed session, got state %s capturing %v", s.State(), s.IsCapturing())
	}
	if result.ID == "" {
		t.Error("Expected a session ID")
	}
}

func TestSessionFrameLimit(t *testing.T) {
	capturer := &scriptedCapturer{frames: []*cv.Frame{
		docFrame(0, testHeight, 0x5a),
		docFrame(20, testHeight, 0x5a),
		docFrame(40, testHeight, 0x5a),
	}}
	s := New(Dependencies{
		Selector: region.NewFixed(cv.RegionFromSize(0, 0, testWidth, testHeight)),
		Capturer: capturer,
		Scroller: &countingScroller{},
	}, Options{MaxFrames: 2, Match: cv.DefaultMatchOptions()})

	result := s.Start(context.Background())

	if result.State != StateCompleted {
		t.Fatalf("Expected completed, got %s (%v)", result.State, result.Err)
	}
	if result.Frames != 2 || capturer.calls != 2 {
		t.Errorf("Expected 2 frames captured, got %d (%d calls)", result.Frames, capturer.calls)
	}
	assertDocRows(t, result.Composite, 70)
}

func TestSessionStitchFailureKeepsComposite(t *testing.T) {
	first := docFrame(0, testHeight, 0x5a)
	capturer := &scriptedCapturer{frames: []*cv.Frame{first, docFrame(500, testHeight, 0x11)}}
	persister := &recordingPersister{}
	s := newTestSession(capturer, &countingScroller{}, persister)

	result := s.Start(context.Background())

	if result.State != StateFailed {
		t.Fatalf("Expected failed, got %s", result.State)
	}
	if !errors.Is(result.Err, cv.ErrNoMatch) {
		t.Errorf("Expected ErrNoMatch, got %v", result.Err)
	}
	if !result.Degraded() {
		t.Error("Expected a degraded result")
	}
	if !cv.AreIdentical(result.Composite, first) {
		t.Error("Expected the last good composite to be the first frame")
	}
	if len(persister.saved) != 1 {
		t.Errorf("Expected the partial composite to be persisted, got %d saves", len(persister.saved))
	}
}

func TestSessionCaptureFailure(t *testing.T) {
	capturer := &scriptedCapturer{frames: []*cv.Frame{docFrame(0, testHeight, 0x5a)}, failAt: 2}
	s := newTestSession(capturer, &countingScroller{}, &recordingPersister{})

	result := s.Start(context.Background())

	if result.State != StateFailed {
		t.Fatalf("Expected failed, got %s", result.State)
	}
	if result.Degraded() {
		t.Error("Capture failure must not be reported as degraded")
	}
	if result.Composite == nil || result.Composite.Height != testHeight {
		t.Errorf("Expected the first frame as composite, got %v", result.Composite)
	}
	if result.Frames != 1 {
		t.Errorf("Expected 1 frame, got %d", result.Frames)
	}
}

func TestSessionScrollFailure(t *testing.T) {
	capturer := &scriptedCapturer{frames: []*cv.Frame{docFrame(0, testHeight, 0x5a)}}
	scroller := &countingScroller{err: errors.New("port closed")}
	s := newTestSession(capturer, scroller, nil)

	result := s.Start(context.Background())

	if result.State != StateFailed {
		t.Fatalf("Expected failed, got %s", result.State)
	}
	if result.Err == nil || capturer.calls != 1 {
		t.Errorf("Expected failure after first capture, got err %v after %d calls", result.Err, capturer.calls)
	}
}

func TestSessionSelectionCancelled(t *testing.T) {
	capturer := &scriptedCapturer{frames: []*cv.Frame{docFrame(0, testHeight, 0x5a)}}
	persister := &recordingPersister{}
	s := New(Dependencies{
		Selector:  cancelledSelector{},
		Capturer:  capturer,
		Scroller:  &countingScroller{},
		Persister: persister,
	}, testOptions())

	result := s.Start(context.Background())

	if result.State != StateCancelled {
		t.Fatalf("Expected cancelled, got %s", result.State)
	}
	if !errors.Is(result.Err, ErrSelectionCancelled) {
		t.Errorf("Expected ErrSelectionCancelled, got %v", result.Err)
	}
	if capturer.calls != 0 || len(persister.saved) != 0 {
		t.Errorf("Expected no capture and no save, got %d captures %d saves", capturer.calls, len(persister.saved))
	}
	if result.Composite != nil {
		t.Error("Expected no composite")
	}
}

func TestSessionRejectsDegenerateRegion(t *testing.T) {
	capturer := &scriptedCapturer{frames: []*cv.Frame{docFrame(0, testHeight, 0x5a)}}
	s := New(Dependencies{
		Selector: region.NewFixed(cv.RegionFromSize(0, 0, testWidth, 4)),
		Capturer: capturer,
		Scroller: &countingScroller{},
	}, testOptions())

	result := s.Start(context.Background())

	if result.State != StateFailed {
		t.Fatalf("Expected failed, got %s", result.State)
	}
	if !errors.Is(result.Err, cv.ErrDegenerateRegion) {
		t.Errorf("Expected ErrDegenerateRegion, got %v", result.Err)
	}
	if capturer.calls != 0 {
		t.Errorf("Expected no capture, got %d", capturer.calls)
	}
}

func TestSessionStop(t *testing.T) {
	capturer := &scriptedCapturer{frames: []*cv.Frame{
		docFrame(0, testHeight, 0x5a),
		docFrame(20, testHeight, 0x5a),
	}}
	persister := &recordingPersister{}
	s := newTestSession(capturer, &countingScroller{}, persister)
	s.WithHooks(Hooks{OnFrameSaved: func(*cv.Frame) { s.Stop() }})

	result := s.Start(context.Background())

	if result.State != StateCancelled {
		t.Fatalf("Expected cancelled, got %s", result.State)
	}
	if !errors.Is(result.Err, ErrStopped) {
		t.Errorf("Expected ErrStopped, got %v", result.Err)
	}
	if result.Frames != 1 {
		t.Errorf("Expected 1 frame, got %d", result.Frames)
	}
	if len(persister.saved) != 1 {
		t.Errorf("Expected the composite to be persisted on stop, got %d saves", len(persister.saved))
	}
}

func TestSessionContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	capturer := &scriptedCapturer{frames: []*cv.Frame{
		docFrame(0, testHeight, 0x5a),
		docFrame(20, testHeight, 0x5a),
	}}
	s := newTestSession(capturer, &countingScroller{}, nil)
	s.WithHooks(Hooks{OnFrameSaved: func(*cv.Frame) { cancel() }})

	result := s.Start(ctx)

	if result.State != StateCancelled {
		t.Fatalf("Expected cancelled, got %s", result.State)
	}
	if capturer.calls != 1 {
		t.Errorf("Expected 1 capture, got %d", capturer.calls)
	}
}

func TestSessionRejectsConcurrentStart(t *testing.T) {
	capturer := &scriptedCapturer{frames: []*cv.Frame{docFrame(0, testHeight, 0x5a)}}
	s := newTestSession(capturer, &countingScroller{}, nil)

	var nested Result
	s.WithHooks(Hooks{OnFrameSaved: func(*cv.Frame) {
		nested = s.Start(context.Background())
	}})

	s.Start(context.Background())

	if !errors.Is(nested.Err, ErrAlreadyRunning) {
		t.Errorf("Expected ErrAlreadyRunning, got %v", nested.Err)
	}
}

func TestSessionPublishesEvents(t *testing.T) {
	bus := events.NewEventBus(100)

	var mu sync.Mutex
	var seen []events.EventType
	bus.Subscribe(events.EventTypeAll, func(e events.Event) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.Type)
	})

	frame2 := docFrame(20, testHeight, 0x5a)
	s := New(Dependencies{
		Selector:  region.NewFixed(cv.RegionFromSize(0, 0, testWidth, testHeight)),
		Capturer:  &scriptedCapturer{frames: []*cv.Frame{docFrame(0, testHeight, 0x5a), frame2, frame2}},
		Scroller:  &countingScroller{},
		Persister: &recordingPersister{},
		Bus:       bus,
	}, testOptions())

	s.Start(context.Background())
	bus.Stop()

	mu.Lock()
	defer mu.Unlock()

	counts := make(map[events.EventType]int)
	for _, typ := range seen {
		counts[typ]++
	}

	expected := map[events.EventType]int{
		events.EventTypeSessionStarted:   1,
		events.EventTypeFrameSaved:       2,
		events.EventTypeFrameMatched:     1,
		events.EventTypeCompositeReady:   1,
		events.EventTypeSessionCompleted: 1,
	}
	for typ, want := range expected {
		if counts[typ] != want {
			t.Errorf("Expected %d %s events, got %d", want, typ, counts[typ])
		}
	}

	if len(seen) == 0 || seen[len(seen)-1] != events.EventTypeSessionCompleted {
		t.Errorf("Expected session.completed last, got %v", seen)
	}
}

func TestSessionRecordsHistory(t *testing.T) {
	db, err := database.Open("sqlite3", filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	first := docFrame(0, testHeight, 0x5a)
	s := New(Dependencies{
		Selector:  region.NewFixed(cv.RegionFromSize(0, 0, testWidth, testHeight)),
		Capturer:  &scriptedCapturer{frames: []*cv.Frame{first, docFrame(500, testHeight, 0x11)}},
		Scroller:  &countingScroller{},
		Persister: &recordingPersister{},
		History:   db,
	}, testOptions())

	result := s.Start(context.Background())

	row, err := db.GetSession(result.ID)
	if err != nil {
		t.Fatalf("Failed to load session: %v", err)
	}
	if row.State != "failed" || !row.Degraded {
		t.Errorf("Expected degraded failed row, got state %s degraded %v", row.State, row.Degraded)
	}
	if row.Frames != 2 || row.Height != testHeight {
		t.Errorf("Expected 2 frames at height %d, got %d at %d", testHeight, row.Frames, row.Height)
	}
	if row.OutputPath == nil || *row.OutputPath != "out.png" {
		t.Errorf("Expected output path out.png, got %v", row.OutputPath)
	}

	errs, err := db.GetSessionErrors(result.ID)
	if err != nil {
		t.Fatalf("Failed to load session errors: %v", err)
	}
	if len(errs) != 1 || errs[0].Category != "matching" {
		t.Errorf("Expected one matching error, got %+v", errs)
	}
}

func TestStateTerminal(t *testing.T) {
	for _, st := range []State{StateCompleted, StateCancelled, StateFailed} {
		if !st.Terminal() {
			t.Errorf("%s should be terminal", st)
		}
	}
	for _, st := range []State{StateIdle, StateSelecting, StateCapturing, StateStitching} {
		if st.Terminal() {
			t.Errorf("%s should not be terminal", st)
		}
	}
	if State(42).String() != "unknown" {
		t.Errorf("Expected unknown, got %s", State(42))
	}
}

func TestSessionStopBeforeStart(t *testing.T) {
	capturer := &scriptedCapturer{frames: []*cv.Frame{docFrame(0, testHeight, 0x5a)}}
	s := newTestSession(capturer, &countingScroller{}, nil)

	s.Stop()
	result := s.Start(context.Background())

	if result.State != StateCancelled || !errors.Is(result.Err, ErrStopped) {
		t.Fatalf("Expected cancelled by stop, got %s (%v)", result.State, result.Err)
	}
	if capturer.calls != 0 {
		t.Errorf("Expected no capture, got %d", capturer.calls)
	}

	// The request is consumed by the session it ended
	result = s.Start(context.Background())
	if result.State != StateCompleted {
		t.Errorf("Expected the next session to complete, got %s (%v)", result.State, result.Err)
	}
}

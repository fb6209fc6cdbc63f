// Package session runs scroll capture: capture, scroll, match and extend until
// the content stops moving.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"jordanella.com/scrollshot/internal/cv"
	"jordanella.com/scrollshot/internal/database"
	"jordanella.com/scrollshot/internal/events"
	"jordanella.com/scrollshot/internal/input"
	"jordanella.com/scrollshot/internal/logging"
	"jordanella.com/scrollshot/internal/region"
)

// Persister saves the final composite and returns where it went
type Persister interface {
	Persist(composite *cv.Frame) (string, error)
}

// History records sessions. *database.DB implements it.
type History interface {
	StartSession(id, region string, startedAt time.Time) error
	FinishSession(s *database.CaptureSession) error
	LogSessionError(sessionID, category, message string, frame int) (int64, error)
}

// Dependencies are the collaborators a session drives. Selector, Capturer
// and Scroller are required; the rest may be nil.
type Dependencies struct {
	Selector  region.Selector
	Capturer  cv.Capturer
	Scroller  input.Scroller
	Activator input.Activator
	Persister Persister
	History   History
	Bus       events.EventBus
	Errors    *logging.ErrorReporter
}

// Hooks are called on the capture goroutine. Any may be nil.
type Hooks struct {
	OnProgress   func(message string)
	OnFrameSaved func(composite *cv.Frame)
	OnReady      func(composite *cv.Frame)
}

// Result is the outcome of one session
type Result struct {
	ID        string
	State     State
	Region    cv.Region
	Composite *cv.Frame // Last good composite; nil if nothing was captured
	Frames    int       // Frames captured, including the final identical one
	Best      cv.BestMatch
	Err       error // Why the session ended, nil on normal completion
	SaveErr   error // Persisting the composite failed

	OutputPath string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Degraded reports a stitch failure: the composite was saved but content
// below it may be missing
func (r Result) Degraded() bool {
	return r.State == StateFailed && errors.Is(r.Err, cv.ErrNoMatch)
}

// Session is a reusable scroll capture controller. Start runs one session at
// a time; Stop, IsCapturing, State and Best are safe from other goroutines.
type Session struct {
	deps    Dependencies
	opts    Options
	hooks   Hooks
	matcher *cv.Matcher
	logger  *logging.Logger

	best    cv.SessionState
	state   atomic.Int32
	running atomic.Bool
	stop    atomic.Bool
}

// New creates a session controller
func New(deps Dependencies, opts Options) *Session {
	return &Session{
		deps:    deps,
		opts:    opts,
		matcher: cv.NewMatcher(opts.Match),
		logger:  logging.NewLogger("Session"),
	}
}

// WithHooks sets the notification callbacks
func (s *Session) WithHooks(hooks Hooks) *Session {
	s.hooks = hooks
	return s
}

// Stop asks the session to end after its current step. A Stop issued before
// Start ends the next session before its first capture.
func (s *Session) Stop() {
	s.stop.Store(true)
}

// IsCapturing reports whether Start is running
func (s *Session) IsCapturing() bool {
	return s.running.Load()
}

// State returns the current lifecycle state
func (s *Session) State() State {
	return State(s.state.Load())
}

// Best returns the strongest match seen in the current or last session
func (s *Session) Best() cv.BestMatch {
	return s.best.Best()
}

// run holds the per-session values threaded through the loop
type run struct {
	result    Result
	composite *cv.Frame
	prev      *cv.Frame
	started   bool // History row exists
}

// Start selects a region and captures until the content stops scrolling,
// the frame limit is hit, Stop is called or ctx ends. It blocks and always
// returns a terminal Result; the composite built so far is persisted in
// every terminal state.
func (s *Session) Start(ctx context.Context) Result {
	if !s.running.CompareAndSwap(false, true) {
		return Result{State: StateFailed, Err: ErrAlreadyRunning}
	}
	defer func() {
		s.stop.Store(false)
		s.running.Store(false)
	}()

	s.best.Reset()

	r := &run{result: Result{ID: uuid.NewString(), StartedAt: time.Now()}}

	s.setState(StateSelecting)
	s.progress(r, "Select a region to capture")

	sel, ok, err := s.deps.Selector.Select(ctx)
	if !ok {
		if err == nil {
			err = ErrSelectionCancelled
		}
		return s.finish(r, StateCancelled, err)
	}
	if err != nil {
		// The rectangle is usable; only window lookup failed
		s.logger.WarnWithContext("Selection incomplete, capturing without activation", map[string]interface{}{
			"error": err.Error(),
		})
	}
	r.result.Region = sel.Region

	if err := s.matcher.ValidateRegion(sel.Region); err != nil {
		return s.finish(r, StateFailed, err)
	}

	s.publish(events.NewSessionStartedEvent(r.result.ID, sel.Region.String()))
	if s.deps.History != nil {
		if err := s.deps.History.StartSession(r.result.ID, sel.Region.String(), r.result.StartedAt); err != nil {
			s.logger.Error("Failed to record session start", err)
		} else {
			r.started = true
		}
	}

	s.setState(StateCapturing)
	if s.opts.ActivateWindow && sel.Window != 0 && s.deps.Activator != nil {
		if err := s.deps.Activator.ActivateWindow(sel.Window); err != nil {
			s.report(r, logging.ErrorCategoryInput, logging.ErrorSeverityLow, "Window activation failed", err)
		}
	}

	if !s.wait(ctx, s.opts.StartDelay) {
		return s.finish(r, StateCancelled, ErrStopped)
	}

	state, err := s.loop(ctx, r, sel.Region)
	return s.finish(r, state, err)
}

// loop runs capture iterations and returns the terminal state
func (s *Session) loop(ctx context.Context, r *run, rect cv.Region) (State, error) {
	for {
		if s.stopRequested(ctx) {
			return StateCancelled, ErrStopped
		}
		if s.opts.MaxFrames > 0 && r.result.Frames >= s.opts.MaxFrames {
			s.logger.InfoWithContext("Frame limit reached", map[string]interface{}{
				"max_frames": s.opts.MaxFrames,
			})
			return StateCompleted, nil
		}

		s.setState(StateCapturing)
		frame, err := s.deps.Capturer.CaptureRect(rect)
		if err != nil {
			s.report(r, logging.ErrorCategoryCapture, logging.ErrorSeverityHigh, "Capture failed", err)
			return StateFailed, fmt.Errorf("capture frame %d: %w", r.result.Frames+1, err)
		}
		r.result.Frames++

		// Scrolling no longer changes the rectangle
		if r.prev != nil && cv.AreIdentical(r.prev, frame) {
			s.logger.DebugWithContext("Frame unchanged, end of content", map[string]interface{}{
				"frame": r.result.Frames,
			})
			return StateCompleted, nil
		}

		if err := s.deps.Scroller.ScrollStep(); err != nil {
			s.report(r, logging.ErrorCategoryInput, logging.ErrorSeverityHigh, "Scroll failed", err)
			return StateFailed, fmt.Errorf("scroll after frame %d: %w", r.result.Frames, err)
		}

		s.setState(StateStitching)
		if r.composite == nil {
			r.composite = frame
		} else {
			next, done, err := s.stitch(r, frame)
			if err != nil {
				return StateFailed, err
			}
			if done {
				return StateCompleted, nil
			}
			r.composite = next
		}

		s.frameSaved(r)
		r.prev = frame

		if !s.wait(ctx, s.opts.ScrollDelay) {
			return StateCancelled, ErrStopped
		}
	}
}

// stitch matches frame against the composite and extends it. done is set
// when the frame contributes no new rows.
func (s *Session) stitch(r *run, frame *cv.Frame) (*cv.Frame, bool, error) {
	m, err := s.matcher.FindOverlap(r.composite, frame, &s.best)
	if err != nil {
		s.report(r, logging.ErrorCategoryMatching, logging.ErrorSeverityHigh, "Overlap search failed", err)
		return nil, false, fmt.Errorf("match frame %d: %w", r.result.Frames, err)
	}

	s.logger.DebugWithContext("Overlap found", map[string]interface{}{
		"frame":         r.result.Frames,
		"count":         m.Count,
		"index":         m.Index,
		"ignore_bottom": m.IgnoreBottom,
		"fallback":      m.Fallback,
	})
	s.publish(events.NewFrameMatchedEvent(r.result.ID, m.Count, m.Index, m.IgnoreBottom, m.Fallback))

	next, err := cv.Extend(r.composite, frame, m)
	if errors.Is(err, cv.ErrNoNewContent) {
		return nil, true, nil
	}
	if err != nil {
		s.report(r, logging.ErrorCategoryMatching, logging.ErrorSeverityHigh, "Composite extension failed", err)
		return nil, false, fmt.Errorf("extend with frame %d: %w", r.result.Frames, err)
	}
	return next, false, nil
}

// finish records the terminal state and hands the composite to the persister
func (s *Session) finish(r *run, state State, err error) Result {
	s.setState(state)

	r.result.State = state
	r.result.Err = err
	r.result.Composite = r.composite
	r.result.Best = s.best.Best()

	if r.composite != nil {
		s.persist(r)
	}

	r.result.FinishedAt = time.Now()
	s.announce(r)
	s.recordHistory(r)

	return r.result
}

func (s *Session) persist(r *run) {
	if s.deps.Persister != nil {
		path, err := s.deps.Persister.Persist(r.composite)
		if err != nil {
			r.result.SaveErr = err
			s.report(r, logging.ErrorCategoryOutput, logging.ErrorSeverityHigh, "Failed to save composite", err)
		}
		r.result.OutputPath = path
		if path != "" {
			s.publish(events.NewCompositeReadyEvent(r.result.ID, path, r.composite.Width, r.composite.Height))
		}
	}

	if s.hooks.OnReady != nil {
		s.hooks.OnReady(r.composite)
	}
}

// announce logs and publishes the terminal transition
func (s *Session) announce(r *run) {
	res := r.result
	fields := map[string]interface{}{
		"session_id": res.ID,
		"state":      res.State.String(),
		"frames":     res.Frames,
		"duration":   res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond).String(),
	}
	if res.Composite != nil {
		fields["height"] = res.Composite.Height
	}
	if res.OutputPath != "" {
		fields["output"] = res.OutputPath
	}

	switch res.State {
	case StateCompleted:
		s.progress(r, "Capture complete")
		s.logger.InfoWithContext("Capture completed", fields)
		height := 0
		if res.Composite != nil {
			height = res.Composite.Height
		}
		s.publish(events.NewSessionCompletedEvent(res.ID, res.Frames, height))
	case StateCancelled:
		s.progress(r, "Capture cancelled")
		s.logger.InfoWithContext("Capture cancelled", fields)
		s.publish(events.NewSessionCancelledEvent(res.ID, res.Frames))
	case StateFailed:
		fields["degraded"] = res.Degraded()
		if res.Degraded() {
			s.progress(r, "Stitching failed, saved the part captured so far")
			fields["error"] = res.Err.Error()
			s.logger.WarnWithContext("Capture degraded", fields)
		} else {
			s.progress(r, "Capture failed")
			s.logger.ErrorWithContext("Capture failed", res.Err, fields)
		}
		s.publish(events.NewSessionFailedEvent(res.ID, res.Frames, res.Err, res.Degraded()))
	}
}

func (s *Session) recordHistory(r *run) {
	if s.deps.History == nil || !r.started {
		return
	}

	res := r.result
	row := &database.CaptureSession{
		ID:               res.ID,
		Region:           res.Region.String(),
		State:            res.State.String(),
		Frames:           res.Frames,
		BestMatchCount:   res.Best.Count,
		BestIgnoreBottom: res.Best.IgnoreBottom,
		Degraded:         res.Degraded(),
		StartedAt:        res.StartedAt,
		FinishedAt:       &res.FinishedAt,
	}
	if res.Composite != nil {
		row.Width = res.Composite.Width
		row.Height = res.Composite.Height
	}
	if res.OutputPath != "" {
		row.OutputPath = &res.OutputPath
	}
	if res.Err != nil {
		msg := res.Err.Error()
		row.ErrorMessage = &msg
	}

	if err := s.deps.History.FinishSession(row); err != nil {
		s.logger.Error("Failed to record session result", err)
	}
}

// report sends an error to the reporter, the bus and the history store
func (s *Session) report(r *run, category logging.ErrorCategory, severity logging.ErrorSeverity, message string, err error) {
	fields := map[string]interface{}{
		"session_id": r.result.ID,
		"frame":      r.result.Frames,
	}

	if s.deps.Errors != nil {
		s.deps.Errors.ReportError(category, severity, "session", message, err, fields)
	} else {
		s.logger.ErrorWithContext(message, err, fields)
	}

	s.publish(events.NewErrorEvent("session", string(category), err, fields))

	if s.deps.History != nil && r.started {
		if _, herr := s.deps.History.LogSessionError(r.result.ID, string(category), err.Error(), r.result.Frames); herr != nil {
			s.logger.Error("Failed to record session error", herr)
		}
	}
}

func (s *Session) frameSaved(r *run) {
	s.progress(r, fmt.Sprintf("Captured %d frames, %dpx", r.result.Frames, r.composite.Height))
	s.publish(events.NewFrameSavedEvent(r.result.ID, r.result.Frames, r.composite.Width, r.composite.Height))
	if s.hooks.OnFrameSaved != nil {
		s.hooks.OnFrameSaved(r.composite)
	}
}

func (s *Session) progress(r *run, message string) {
	s.publish(events.NewSessionProgressEvent(r.result.ID, message))
	if s.hooks.OnProgress != nil {
		s.hooks.OnProgress(message)
	}
}

func (s *Session) publish(e events.Event) {
	if s.deps.Bus != nil {
		s.deps.Bus.Publish(e)
	}
}

func (s *Session) setState(state State) {
	s.state.Store(int32(state))
}

func (s *Session) stopRequested(ctx context.Context) bool {
	return s.stop.Load() || ctx.Err() != nil
}

// wait sleeps for d and reports false if the session should stop
func (s *Session) wait(ctx context.Context, d time.Duration) bool {
	if d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
	}
	return !s.stopRequested(ctx)
}

package cv

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNoMatch means no alignment was found and the session holds no earlier
	// match to fall back on. The composite cannot be extended reliably.
	ErrNoMatch = errors.New("no overlap found between composite and frame")
	// ErrDegenerateRegion means the comparison rectangle left after the
	// side and bottom exclusions has no area
	ErrDegenerateRegion = errors.New("capture region too small to match")
)

// MatchOptions tunes the overlap search
type MatchOptions struct {
	// SideDivisor excludes Width/SideDivisor columns on both edges (scrollbars, cursors)
	SideDivisor int
	// MinIgnoreSide is the floor for the side exclusion. Never exceeds Width/3.
	MinIgnoreSide int

	// MinIgnoreBottom and IgnoreBottomDivisor give the baseline bottom band:
	// max(MinIgnoreBottom, Height/IgnoreBottomDivisor). A zero divisor drops
	// the proportional part.
	MinIgnoreBottom     int
	IgnoreBottomDivisor int
	// AutoIgnoreBottom widens the bottom band to cover rows that did not move
	// between the composite and the new frame (sticky footers, overlays)
	AutoIgnoreBottom bool

	// MinMatchLimit is the floor for the longest run the search counts (Height/2 otherwise)
	MinMatchLimit int
}

// DefaultMatchOptions returns recommended settings
func DefaultMatchOptions() MatchOptions {
	return MatchOptions{
		SideDivisor:         10,
		MinIgnoreSide:       4,
		MinIgnoreBottom:     4,
		IgnoreBottomDivisor: 10,
		AutoIgnoreBottom:    true,
		MinMatchLimit:       10,
	}
}

// MatchResult describes where a new frame continues the composite
type MatchResult struct {
	// Count is the number of consecutive rows that matched
	Count int
	// Index is the row in the new frame where the overlap ends; rows below it are new
	Index int
	// IgnoreBottom is the number of composite rows replaced by the new frame
	IgnoreBottom int
	// Fallback is set when the result was taken from session memory
	Fallback bool
}

// BestMatch is a copy of the strongest match a session has seen
type BestMatch struct {
	Count        int
	Index        int
	IgnoreBottom int
}

// SessionState is the best-match memory of one capture session. It is
// written by the matcher on the capture goroutine and may be read from
// others, so access goes through the mutex.
type SessionState struct {
	mu   sync.Mutex
	best BestMatch
}

// Reset clears the memory at session start
func (s *SessionState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.best = BestMatch{}
}

// Best returns a snapshot of the recorded best match
func (s *SessionState) Best() BestMatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.best
}

// record stores m if it beats the current best. Count never decreases.
func (s *SessionState) record(m MatchResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.Count <= s.best.Count {
		return false
	}
	s.best = BestMatch{Count: m.Count, Index: m.Index, IgnoreBottom: m.IgnoreBottom}
	return true
}

// Matcher finds the vertical alignment between a composite and a new frame
type Matcher struct {
	opts MatchOptions
}

// NewMatcher creates a matcher with the given options
func NewMatcher(opts MatchOptions) *Matcher {
	return &Matcher{opts: opts}
}

// Options returns the matcher configuration
func (m *Matcher) Options() MatchOptions {
	return m.opts
}

// IgnoreSide returns the number of columns excluded on each edge
func (m *Matcher) IgnoreSide(width int) int {
	side := 0
	if m.opts.SideDivisor > 0 {
		side = width / m.opts.SideDivisor
	}
	if side < m.opts.MinIgnoreSide {
		side = m.opts.MinIgnoreSide
	}
	if ceiling := width / 3; side > ceiling {
		side = ceiling
	}
	if side < 0 {
		side = 0
	}
	return side
}

// CompareRect returns the column range [x0, x1) used for row comparison
func (m *Matcher) CompareRect(width, height int) (int, int, error) {
	side := m.IgnoreSide(width)
	x0, x1 := side, width-side
	if x1 <= x0 || height <= 0 {
		return 0, 0, fmt.Errorf("%w: %dx%d leaves no comparison area", ErrDegenerateRegion, width, height)
	}
	return x0, x1, nil
}

// baselineIgnoreBottom is the bottom band excluded before auto detection
func (m *Matcher) baselineIgnoreBottom(height int) int {
	band := m.opts.MinIgnoreBottom
	if m.opts.IgnoreBottomDivisor > 0 {
		if h := height / m.opts.IgnoreBottomDivisor; h > band {
			band = h
		}
	}
	if band < 0 {
		band = 0
	}
	return band
}

// staticBottomRows counts rows, from the bottom up, that sit unchanged at the
// same position in both images. Content scrolls between captures; rows that
// stay put belong to fixed UI and must not take part in matching.
func (m *Matcher) staticBottomRows(composite, frame *Frame, x0, x1 int) int {
	limit := frame.Height / 3
	rows := 0
	for rows < limit {
		yc := composite.Height - 1 - rows
		yf := frame.Height - 1 - rows
		if yc < 0 || yf < 0 {
			break
		}
		if !rowsEqual(composite, yc, frame, yf, x0, x1) {
			break
		}
		rows++
	}
	return rows
}

// matchLimit caps how many consecutive rows a single candidate may count
func (m *Matcher) matchLimit(height int) int {
	limit := height / 2
	if limit < m.opts.MinMatchLimit {
		limit = m.opts.MinMatchLimit
	}
	return limit
}

// FindOverlap locates the row of frame where its content stops repeating the
// bottom of composite. The returned Index marks the last overlapping row;
// rows Index+1 and below are new content.
//
// Candidates are scanned from the bottom of the frame upward and only a
// strictly longer run replaces the current best, so ties keep the bottom-most
// candidate. When no run is found the session's best match is reused; when
// there is none ErrNoMatch is returned. state may be nil for one-off matching.
func (m *Matcher) FindOverlap(composite, frame *Frame, state *SessionState) (MatchResult, error) {
	if composite.Empty() || frame.Empty() {
		return MatchResult{}, fmt.Errorf("%w: empty image", ErrDegenerateRegion)
	}
	if composite.Width != frame.Width {
		return MatchResult{}, fmt.Errorf("%w: composite width %d, frame width %d", ErrSizeMismatch, composite.Width, frame.Width)
	}
	if !composite.valid() || !frame.valid() {
		return MatchResult{}, ErrInvalidBuffer
	}

	x0, x1, err := m.CompareRect(frame.Width, frame.Height)
	if err != nil {
		return MatchResult{}, err
	}

	height := frame.Height
	ignoreBottom := m.baselineIgnoreBottom(height)
	if m.opts.AutoIgnoreBottom {
		if static := m.staticBottomRows(composite, frame, x0, x1); static > ignoreBottom {
			ignoreBottom = static
		}
	}
	if state != nil {
		if best := state.Best(); best.IgnoreBottom > ignoreBottom {
			ignoreBottom = best.IgnoreBottom
		}
	}

	rectBottom := composite.Height - ignoreBottom - 1
	if rectBottom < 0 || ignoreBottom >= height {
		return MatchResult{}, fmt.Errorf("%w: bottom band %d covers the image", ErrDegenerateRegion, ignoreBottom)
	}

	limit := m.matchLimit(height)
	result := MatchResult{IgnoreBottom: ignoreBottom}

	for candidate := height - 1; candidate >= 0 && result.Count < limit; candidate-- {
		run := 0
		for y := 0; candidate-y >= 0 && rectBottom-y >= 0 && run < limit; y++ {
			if !rowsEqual(composite, rectBottom-y, frame, candidate-y, x0, x1) {
				break
			}
			run++
		}

		if run > result.Count {
			result.Count = run
			result.Index = candidate
		}
	}

	if result.Count == 0 {
		if state == nil {
			return MatchResult{}, ErrNoMatch
		}
		best := state.Best()
		if best.Count == 0 {
			return MatchResult{}, ErrNoMatch
		}
		return MatchResult{
			Count:        best.Count,
			Index:        best.Index,
			IgnoreBottom: best.IgnoreBottom,
			Fallback:     true,
		}, nil
	}

	if state != nil {
		state.record(result)
	}

	return result, nil
}

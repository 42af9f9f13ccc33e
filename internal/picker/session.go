// Package picker owns the lifecycle of a picker's selection and combines
// month grids with selection predicates into per-day view state.
package picker

import (
	"sync"

	"pickcal/internal/calendar"
	"pickcal/internal/selection"
)

// DefaultMaxHistory bounds the undo stack of a Session.
const DefaultMaxHistory = 64

// Options configure a new Session.
type Options struct {
	Mode             selection.Mode
	Allowed          calendar.AllowedRange
	AllowsRepetition bool
	// MaxHistory caps undo depth. Zero means DefaultMaxHistory.
	MaxHistory int
}

// Session is one picker's selection state. It starts empty, changes only
// through Tap (plus Undo/Redo over values it already produced), and is reset
// when the mode or the allowed range changes. Safe for concurrent use.
type Session struct {
	mu sync.Mutex

	mode       selection.Mode
	allowed    calendar.AllowedRange
	repetition bool
	current    selection.Selection
	undo       []selection.Selection
	redo       []selection.Selection
	maxHistory int
}

// Snapshot is a consistent copy of a Session's state.
type Snapshot struct {
	Mode             selection.Mode        `json:"mode"`
	Allowed          calendar.AllowedRange `json:"allowed"`
	AllowsRepetition bool                  `json:"allows_repetition"`
	Selection        selection.Selection   `json:"selection"`
	UndoDepth        int                   `json:"undo_depth"`
	RedoDepth        int                   `json:"redo_depth"`
}

func NewSession(opts Options) *Session {
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = DefaultMaxHistory
	}
	return &Session{
		mode:       opts.Mode,
		allowed:    opts.Allowed,
		repetition: opts.AllowsRepetition,
		maxHistory: opts.MaxHistory,
	}
}

// Tap applies a tap on d and reports whether the selection changed. An
// unchanged result (e.g. a tap outside the allowed range) leaves history as
// it was.
func (s *Session) Tap(d calendar.Date) (selection.Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := selection.ApplyTap(s.current, s.mode, s.allowed, d, s.repetition)
	if next.Equal(s.current) {
		return s.current, false
	}

	s.undo = append(s.undo, s.current)
	if len(s.undo) > s.maxHistory {
		s.undo = s.undo[len(s.undo)-s.maxHistory:]
	}
	s.redo = nil
	s.current = next
	return next, true
}

// Undo restores the selection before the last change.
func (s *Session) Undo() (selection.Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undo) == 0 {
		return s.current, false
	}
	prev := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, s.current)
	s.current = prev
	return prev, true
}

// Redo re-applies the last undone change.
func (s *Session) Redo() (selection.Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.redo) == 0 {
		return s.current, false
	}
	next := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, s.current)
	s.current = next
	return next, true
}

// Reset clears the selection and its history.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// SetMode switches the selection mode. A different mode discards the current
// selection; setting the same mode is a no-op. Reports whether a reset
// happened.
func (s *Session) SetMode(m selection.Mode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m == s.mode {
		return false
	}
	s.mode = m
	s.resetLocked()
	return true
}

// SetRange replaces the allowed range, discarding the selection when the
// range actually changes.
func (s *Session) SetRange(r calendar.AllowedRange) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r == s.allowed {
		return false
	}
	s.allowed = r
	s.resetLocked()
	return true
}

// SetRepetition changes the repetition policy. The existing selection is
// kept: the policy only affects how later taps are applied.
func (s *Session) SetRepetition(allows bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repetition = allows
}

func (s *Session) Selection() selection.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Mode:             s.mode,
		Allowed:          s.allowed,
		AllowsRepetition: s.repetition,
		Selection:        s.current,
		UndoDepth:        len(s.undo),
		RedoDepth:        len(s.redo),
	}
}

func (s *Session) resetLocked() {
	s.current = selection.Empty()
	s.undo = nil
	s.redo = nil
}

package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bodul/strands/internal/board"
	"github.com/bodul/strands/internal/model"
	"github.com/bodul/strands/internal/present"
	"github.com/bodul/strands/internal/solve"
)

// Session is one browser tab's board and solve lifecycle.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	mu       sync.Mutex
	grid     *board.Grid
	editor   *board.Editor
	focus    model.Coord
	lastSeen time.Time
	solving  bool
	orch     *solve.Orchestrator
}

var errSolveInProgress = errors.New("a solve is already in progress")

// SessionState is the JSON view of a session.
type SessionState struct {
	ID    string         `json:"id"`
	Rows  int            `json:"rows"`
	Cols  int            `json:"cols"`
	Cells [][]string     `json:"cells"`
	Focus model.Coord    `json:"focus"`
	Solve solve.Snapshot `json:"solve"`
}

func newSession(id string, rows, cols int, svc solve.Service) *Session {
	now := time.Now()
	s := &Session{
		ID:        id,
		CreatedAt: now,
		grid:      board.New(rows, cols),
		lastSeen:  now,
		orch:      solve.NewOrchestrator(svc),
	}
	s.editor = board.NewEditor(s.grid, s)
	return s
}

// Focus records the focused cell. The editor calls it with s.mu held.
func (s *Session) Focus(c model.Coord) {
	s.focus = c
}

// OnSolveChange registers fn for every orchestrator transition.
func (s *Session) OnSolveChange(fn func(solve.Snapshot)) {
	s.orch.OnChange(fn)
}

// Input writes raw at c and returns the stored value and the focused cell.
func (s *Session) Input(c model.Coord, raw string) (string, model.Coord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()

	v, at, err := s.editor.Input(c, raw)
	if err != nil {
		return "", s.focus, err
	}
	s.focus = at
	return v, at, nil
}

// Backspace applies a backward delete at c.
func (s *Session) Backspace(c model.Coord) (string, model.Coord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()

	at, err := s.editor.Backspace(c)
	if err != nil {
		return "", s.focus, err
	}
	s.focus = at
	return s.grid.Get(c.Row, c.Col), at, nil
}

// Load replaces every cell, e.g. from a scanned photo.
func (s *Session) Load(rows []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	if err := s.grid.Load(rows); err != nil {
		return err
	}
	s.focus = model.Coord{}
	return nil
}

// Reset empties the board and drops any result or call in flight.
func (s *Session) Reset() {
	s.mu.Lock()
	s.grid.Reset()
	s.focus = model.Coord{}
	s.lastSeen = time.Now()
	s.mu.Unlock()
	s.orch.Reset()
}

// Submit solves a snapshot of the board. Only one Submit per session runs at
// a time; a concurrent call returns errSolveInProgress with the current
// snapshot. The session lock is not held during the call, so edits stay
// possible.
func (s *Session) Submit(ctx context.Context, p solve.Params) (solve.Snapshot, error) {
	s.mu.Lock()
	if s.solving {
		s.mu.Unlock()
		return s.orch.Snapshot(), errSolveInProgress
	}
	s.solving = true
	g := s.grid.Clone()
	s.lastSeen = time.Now()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.solving = false
		s.mu.Unlock()
	}()
	return s.orch.Submit(ctx, g, p), nil
}

// Solving reports whether a Submit is running.
func (s *Session) Solving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.solving
}

// Views returns the presenter output for the current result.
func (s *Session) Views() []present.View {
	return present.Present(s.orch.Snapshot().Result)
}

// Cells returns a copy of the board.
func (s *Session) Cells() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.Cells()
}

// State returns a consistent copy of the session.
func (s *Session) State() SessionState {
	s.mu.Lock()
	rows, cols := s.grid.Dims()
	st := SessionState{
		ID:    s.ID,
		Rows:  rows,
		Cols:  cols,
		Cells: s.grid.Cells(),
		Focus: s.focus,
	}
	s.mu.Unlock()
	st.Solve = s.orch.Snapshot()
	return st
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

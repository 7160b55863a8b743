package main

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bodul/strands/internal/solve"
)

// Store holds live sessions in memory. Nothing survives a restart.
type Store struct {
	rows, cols int
	svc        solve.Service

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty store whose sessions get rows×cols boards and
// solve through svc.
func NewStore(rows, cols int, svc solve.Service) *Store {
	return &Store{
		rows:     rows,
		cols:     cols,
		svc:      svc,
		sessions: make(map[string]*Session),
	}
}

// CreateSession starts a session with an empty board.
func (s *Store) CreateSession() *Session {
	sess := newSession(uuid.NewString(), s.rows, s.cols, s.svc)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess
}

// GetSession returns a session by ID, or nil if not found.
func (s *Store) GetSession(id string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

// ListSessions returns all sessions, most recent first.
func (s *Store) ListSessions() []*Session {
	s.mu.RLock()
	list := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		list = append(list, sess)
	}
	s.mu.RUnlock()

	slices.SortFunc(list, func(a, b *Session) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return list
}

// DeleteSession drops a session and cancels its pending call.
func (s *Store) DeleteSession(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		sess.Reset()
	}
	return ok
}

// Prune removes sessions untouched for longer than maxIdle and returns how
// many were removed.
func (s *Store) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	var stale []string

	s.mu.RLock()
	for id, sess := range s.sessions {
		if sess.idleSince().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	s.mu.RUnlock()

	for _, id := range stale {
		s.DeleteSession(id)
	}
	return len(stale)
}

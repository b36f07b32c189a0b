// Package session tracks per-user conversation state. The manager
// serializes all handling for a given user so that concurrent
// messages from the same person cannot interleave state transitions,
// while different users proceed in parallel.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/BTreeMap/EstatePipe/internal/models"
)

// Session is the accumulated conversation state for one user.
type Session struct {
	State        models.State
	Goal         models.Goal
	Fields       models.Fields
	Filters      models.Filters
	CandidateIDs []int64
	SelectedID   int64
	History      []string
}

// newSession returns a fresh session at the initial state.
func newSession() *Session {
	return &Session{
		State:   models.StateAwaitingGoal,
		Fields:  models.Fields{},
		Filters: models.Filters{},
	}
}

// Reset returns the session to its initial state, discarding all
// accumulated data.
func (s *Session) Reset() {
	*s = *newSession()
}

// BeginGoal enters a goal flow with clean working data.
func (s *Session) BeginGoal(goal models.Goal, state models.State) {
	s.Goal = goal
	s.State = state
	s.Fields = models.Fields{}
	s.Filters = models.Filters{}
	s.CandidateIDs = nil
	s.SelectedID = 0
	s.History = nil
}

// EndFlow returns to goal selection without touching accumulated
// fields; BeginGoal clears them on the next flow entry.
func (s *Session) EndFlow() {
	s.State = models.StateAwaitingGoal
	s.Goal = models.GoalNone
	s.CandidateIDs = nil
	s.SelectedID = 0
}

type entry struct {
	mu       sync.Mutex
	sess     *Session
	lastSeen time.Time
}

// Manager owns all sessions and hands out serialized access to them.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{entries: make(map[string]*entry)}
}

// With runs fn with exclusive access to the user's session, creating
// it at the initial state on first contact. fn must not retain the
// session pointer after returning.
func (m *Manager) With(userID string, fn func(*Session)) {
	m.mu.Lock()
	e, ok := m.entries[userID]
	if !ok {
		e = &entry{sess: newSession()}
		m.entries[userID] = e
		slog.Debug("session.Manager: created session", "user", userID)
	}
	e.lastSeen = time.Now()
	m.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.sess)
}

// Snapshot returns a copy of the user's session state, or false when
// the user has no session yet. Used by diagnostics endpoints.
func (m *Manager) Snapshot(userID string) (Session, bool) {
	var out Session
	found := false
	m.mu.Lock()
	e, ok := m.entries[userID]
	m.mu.Unlock()
	if ok {
		e.mu.Lock()
		out = *e.sess
		found = true
		e.mu.Unlock()
	}
	return out, found
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// PruneIdle drops sessions that have seen no activity for at least
// maxIdle and returns how many were removed. Pruned users simply start
// from a fresh session on their next message.
func (m *Manager) PruneIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	pruned := 0
	m.mu.Lock()
	for userID, e := range m.entries {
		if e.lastSeen.Before(cutoff) {
			delete(m.entries, userID)
			pruned++
		}
	}
	m.mu.Unlock()
	if pruned > 0 {
		slog.Info("session.Manager: pruned idle sessions", "count", pruned, "max_idle", maxIdle)
	}
	return pruned
}

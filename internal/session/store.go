// Package session owns the in-memory rolling history shared across
// concurrent chunk requests. Nothing here survives a restart.
package session

import (
	"sync"
	"time"

	"github.com/tonesense/tonesense/internal/models"
)

// Store keeps the last models.MaxSessionResults analysis results per session
// id. One mutex guards every read-modify-write of a session's buffer; record,
// end, and sweep all take it, so an append can never race a deletion for the
// same id.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*models.Session),
		now:      time.Now,
	}
}

// Record appends result to the session's buffer, creating the session on
// first use, evicting the oldest entry beyond the bound, and stamping
// last_active. Sessions only come into existence here, so a session with
// zero results cannot be observed.
func (s *Store) Record(sessionID string, result models.AnalysisResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &models.Session{ID: sessionID}
		s.sessions[sessionID] = sess
	}

	sess.Results = append(sess.Results, result)
	if len(sess.Results) > models.MaxSessionResults {
		sess.Results = sess.Results[len(sess.Results)-models.MaxSessionResults:]
	}
	sess.LastActive = s.now()
}

// End removes the session if present. Absence is not an error.
func (s *Store) End(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Get returns a snapshot of the session, or nil when unknown. The copy
// detaches the caller from the live buffer.
func (s *Store) Get(sessionID string) *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	out := &models.Session{
		ID:         sess.ID,
		Results:    append([]models.AnalysisResult(nil), sess.Results...),
		LastActive: sess.LastActive,
	}
	return out
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes every session whose last_active is older than timeout
// relative to now, returning the removed ids for logging.
func (s *Store) Sweep(now time.Time, timeout time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for id, sess := range s.sessions {
		if now.Sub(sess.LastActive) > timeout {
			delete(s.sessions, id)
			removed = append(removed, id)
		}
	}
	return removed
}

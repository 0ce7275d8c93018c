/**
 * @description
 * In-memory store of per-call dialogue sessions. The telephony transport
 * guarantees that turns within one call arrive sequentially, so a session's
 * fields are mutated without further locking once fetched; the map itself is
 * guarded for the many independent calls running concurrently.
 *
 * Sessions are evicted explicitly when a call ends and by a periodic sweep
 * for calls that never reached a clean hangup.
 */

package session

import (
	"sync"
	"time"

	"github.com/hare32/Collabothon-AIHolics/internal/domain"
)

// Store holds the live sessions keyed by call identifier.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*domain.Session)}
}

// Get returns the session for the given call, creating it bound to userID if
// it does not exist yet, and refreshes its activity timestamp.
func (s *Store) Get(sessionID, userID string) *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &domain.Session{ID: sessionID, UserID: userID}
		sess.Auth.Reset()
		s.sessions[sessionID] = sess
	}
	sess.LastActivity = time.Now()
	return sess
}

// ResetAuth clears authentication progress and any pending transfer for the
// session. Called at call start so no state leaks between calls that reuse a
// session key.
func (s *Store) ResetAuth(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[sessionID]; ok {
		sess.Auth.Reset()
		sess.Pending = nil
	}
}

// Delete removes the session entirely.
func (s *Store) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// PruneIdle evicts sessions whose last activity is older than maxIdle and
// returns how many were removed.
func (s *Store) PruneIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.LastActivity.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

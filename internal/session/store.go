// Package session persists each browsing session's filter state between
// requests. Semantics are last-writer-wins: concurrent requests from the
// same session may race and the newest write simply sticks.
package session

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/vast-survey/triage/internal/filterstate"
)

// Store keeps per-session filter state in memory with a sliding TTL.
type Store struct {
	cache *cache.Cache
}

// NewStore creates a session store whose entries expire after ttl of
// inactivity.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Store{cache: cache.New(ttl, ttl)}
}

// Get returns the session's stored filter state, if any.
func (s *Store) Get(sessionID string) (filterstate.FilterState, bool) {
	if sessionID == "" {
		return filterstate.FilterState{}, false
	}
	if cached, found := s.cache.Get(sessionID); found {
		if state, ok := cached.(filterstate.FilterState); ok {
			return state, true
		}
	}
	return filterstate.FilterState{}, false
}

// Put stores the session's filter state and refreshes its TTL.
func (s *Store) Put(sessionID string, state filterstate.FilterState) {
	if sessionID == "" {
		return
	}
	s.cache.SetDefault(sessionID, state)
}

// Clear drops the session's filter state.
func (s *Store) Clear(sessionID string) {
	if sessionID == "" {
		return
	}
	s.cache.Delete(sessionID)
}

// Package session keeps sidebar settings for the life of a browser session.
// It stores widget selections only; provider data is never kept.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"weatherwise/settings"
)

// entry is a stored settings value with its expiry
type entry struct {
	Settings  settings.Settings
	ExpiresAt time.Time
}

// Store maps session IDs to settings with a sliding TTL
type Store struct {
	items     map[string]entry
	mutex     sync.RWMutex
	ttl       time.Duration
	hitCount  int
	missCount int
	now       func() time.Time
}

// NewStore creates a new session store
func NewStore(ttl time.Duration) *Store {
	return &Store{
		items: make(map[string]entry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// NewID returns a fresh session ID
func (s *Store) NewID() string {
	return uuid.NewString()
}

// Get returns the settings of a session. Reading a session extends its TTL.
func (s *Store) Get(id string) (settings.Settings, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	item, found := s.items[id]
	if !found || s.now().After(item.ExpiresAt) {
		if found {
			delete(s.items, id)
		}
		s.missCount++
		return settings.Settings{}, false
	}
	s.hitCount++
	item.ExpiresAt = s.now().Add(s.ttl)
	s.items[id] = item
	return item.Settings, true
}

// Set stores the settings of a session
func (s *Store) Set(id string, value settings.Settings) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.items[id] = entry{
		Settings:  value,
		ExpiresAt: s.now().Add(s.ttl),
	}
}

// Prune removes expired sessions and returns how many were removed
func (s *Store) Prune() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	pruned := 0
	now := s.now()
	for id, item := range s.items {
		if now.After(item.ExpiresAt) {
			delete(s.items, id)
			pruned++
		}
	}
	return pruned
}

// Stats returns statistics about session hits and misses
func (s *Store) Stats() (hits, misses, size int) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.hitCount, s.missCount, len(s.items)
}

package auth

import (
	"sync"
	"time"
)

// RevocationSet is the process-wide set of revoked token ids.
// Each entry remembers the expiry of the token it revokes so that Prune can
// drop entries whose tokens would be rejected by the expiry check anyway.
type RevocationSet struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewRevocationSet returns an empty set.
func NewRevocationSet() *RevocationSet {
	return &RevocationSet{entries: make(map[string]time.Time)}
}

// Revoke adds tokenID to the set. Revoking an id twice is not an error; the
// later expiry wins.
func (s *RevocationSet) Revoke(tokenID string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.entries[tokenID]; ok && prev.After(expiresAt) {
		return
	}
	s.entries[tokenID] = expiresAt
}

// IsRevoked reports whether tokenID was revoked.
func (s *RevocationSet) IsRevoked(tokenID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[tokenID]
	return ok
}

// Len returns the number of entries.
func (s *RevocationSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Prune removes entries whose token expired before now and returns how many
// were removed.
func (s *RevocationSet) Prune(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, exp := range s.entries {
		if exp.Before(now) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Package revoke provides revocation-set backends for session credentials.
package revoke

import (
	"context"
	"sync"
	"time"
)

// MemorySet is a process-local revocation set. Entries carry the credential's
// expiry and are pruned lazily, so the set stays bounded by the number of
// live credentials.
type MemorySet struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

func NewMemorySet() *MemorySet {
	return &MemorySet{entries: make(map[string]time.Time)}
}

func (s *MemorySet) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	s.entries[jti] = time.Now().Add(ttl)
	return nil
}

func (s *MemorySet) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.RLock()
	expiresAt, ok := s.entries[jti]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(expiresAt) {
		s.mu.Lock()
		delete(s.entries, jti)
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// prune drops expired entries. Callers must hold the write lock.
func (s *MemorySet) prune() {
	now := time.Now()
	for jti, expiresAt := range s.entries {
		if now.After(expiresAt) {
			delete(s.entries, jti)
		}
	}
}

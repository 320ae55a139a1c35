package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/ualauth/ports"
)

type cachedKeys struct {
	keys      []string
	expiresAt time.Time
}

// MemoryStore is an in-memory implementation of the KeyCache interface
type MemoryStore struct {
	entries map[string]cachedKeys
	mu      sync.RWMutex
	now     func() time.Time
}

// NewMemoryStore creates a new in-memory key cache
func NewMemoryStore() ports.KeyCache {
	return &MemoryStore{
		entries: make(map[string]cachedKeys),
		now:     time.Now,
	}
}

// Put caches keys under key. A non-positive ttl never expires.
func (s *MemoryStore) Put(ctx context.Context, key string, keys []string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := cachedKeys{keys: append([]string(nil), keys...)}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = entry

	return nil
}

// Get returns the cached keys, if present and not expired
func (s *MemoryStore) Get(ctx context.Context, key string) ([]string, bool, error) {
	s.mu.RLock()
	entry, exists := s.entries[key]
	s.mu.RUnlock()

	if !exists {
		return nil, false, nil
	}

	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		s.mu.Lock()
		// Only delete if nobody refreshed the entry meanwhile
		if current, ok := s.entries[key]; ok && current.expiresAt.Equal(entry.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}

	return append([]string(nil), entry.keys...), true, nil
}

// Delete drops the cached keys
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

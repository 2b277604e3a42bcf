// Package cooldown provides the per-bucket rate-limit state consulted by the
// monitoring hub before accepting sub-critical records.
package cooldown

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore tracks last-accepted timestamps per bucket in process memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	buckets map[string]time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{buckets: make(map[string]time.Time)}
}

func (s *InMemoryStore) Last(_ context.Context, bucket string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.buckets[bucket]
	return at, ok, nil
}

func (s *InMemoryStore) Touch(_ context.Context, bucket string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets[bucket] = at
	return nil
}

// Reset clears a bucket; used by admin tooling and tests.
func (s *InMemoryStore) Reset(_ context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, bucket)
	return nil
}

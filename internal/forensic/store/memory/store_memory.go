package memory

import (
	"context"
	"sync"

	"sentinelguard/internal/forensic"
	"sentinelguard/pkg/platform/sentinel"
)

// InMemoryStore keeps forensic records in an append-only slice. Suitable for
// single-node deployments and tests; use the postgres store otherwise.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []forensic.Record
	bySeq   map[uint64]int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{bySeq: make(map[uint64]int)}
}

func (s *InMemoryStore) Append(_ context.Context, record forensic.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bySeq[record.SequenceID]; exists {
		return sentinel.ErrConflict
	}
	s.bySeq[record.SequenceID] = len(s.records)
	s.records = append(s.records, record)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, sequenceID uint64) (*forensic.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.bySeq[sequenceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	record := s.records[idx]
	return &record, nil
}

func (s *InMemoryStore) Count(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.records)), nil
}

func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]forensic.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := len(s.records) - limit
	if start < 0 {
		start = 0
	}
	out := make([]forensic.Record, len(s.records)-start)
	copy(out, s.records[start:])
	return out, nil
}

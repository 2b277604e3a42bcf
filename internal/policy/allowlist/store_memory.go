package allowlist

import (
	"context"
	"sort"
	"sync"

	"sentinelguard/pkg/domain"
)

// InMemoryStore keeps the allow list in process memory.
type InMemoryStore struct {
	mu       sync.RWMutex
	accounts map[domain.Address]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{accounts: make(map[domain.Address]struct{})}
}

func (s *InMemoryStore) Contains(_ context.Context, account domain.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.accounts[account]
	return ok, nil
}

func (s *InMemoryStore) Add(_ context.Context, account domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account] = struct{}{}
	return nil
}

func (s *InMemoryStore) Remove(_ context.Context, account domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts, account)
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Address, 0, len(s.accounts))
	for account := range s.accounts {
		out = append(out, account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Package memory provides an in-memory balance store for tests and
// single-node deployments without a database.
package memory

import (
	"context"
	"sync"

	"sentinelguard/pkg/domain"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	balances map[domain.Address]domain.Amount
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{balances: make(map[domain.Address]domain.Amount)}
}

// Get returns the account balance. Unknown accounts hold zero.
func (s *InMemoryStore) Get(_ context.Context, account domain.Address) (domain.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[account], nil
}

// Apply commits every entry under one lock, so readers never observe a
// half-applied transfer.
func (s *InMemoryStore) Apply(_ context.Context, balances map[domain.Address]domain.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for account, balance := range balances {
		if balance.IsZero() {
			delete(s.balances, account)
			continue
		}
		s.balances[account] = balance
	}
	return nil
}

func (s *InMemoryStore) All(_ context.Context) (map[domain.Address]domain.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.Address]domain.Amount, len(s.balances))
	for account, balance := range s.balances {
		out[account] = balance
	}
	return out, nil
}

package memory

import (
	"context"
	"sort"
	"sync"

	"sentinelguard/pkg/domain"
)

// InMemoryStore keeps the role table in process memory.
type InMemoryStore struct {
	mu     sync.RWMutex
	grants map[domain.RoleID]map[domain.Address]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{grants: make(map[domain.RoleID]map[domain.Address]struct{})}
}

func (s *InMemoryStore) Add(_ context.Context, role domain.RoleID, account domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grants[role] == nil {
		s.grants[role] = make(map[domain.Address]struct{})
	}
	s.grants[role][account] = struct{}{}
	return nil
}

func (s *InMemoryStore) Remove(_ context.Context, role domain.RoleID, account domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants[role], account)
	return nil
}

func (s *InMemoryStore) Has(_ context.Context, role domain.RoleID, account domain.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.grants[role][account]
	return ok, nil
}

func (s *InMemoryStore) List(_ context.Context) (map[domain.RoleID][]domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[domain.RoleID][]domain.Address, len(s.grants))
	for role, accounts := range s.grants {
		if len(accounts) == 0 {
			continue
		}
		list := make([]domain.Address, 0, len(accounts))
		for account := range accounts {
			list = append(list, account)
		}
		sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
		out[role] = list
	}
	return out, nil
}

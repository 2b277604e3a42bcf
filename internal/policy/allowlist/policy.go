// Package allowlist is the reference transfer policy: both parties must be
// on the allow list. The registries it models kept ordered arrays with
// swap-and-pop removal; ordering carries no meaning here, so the stores are
// plain sets.
package allowlist

import (
	"context"
	"fmt"

	"sentinelguard/pkg/domain"
)

// Store is the allow-list membership set.
type Store interface {
	Contains(ctx context.Context, account domain.Address) (bool, error)
	Add(ctx context.Context, account domain.Address) error
	Remove(ctx context.Context, account domain.Address) error
	List(ctx context.Context) ([]domain.Address, error)
}

// Policy denies any transfer where either endpoint is not allow-listed.
type Policy struct {
	store Store
}

func New(store Store) (*Policy, error) {
	if store == nil {
		return nil, fmt.Errorf("allowlist store is required")
	}
	return &Policy{store: store}, nil
}

func (p *Policy) ValidateTransfer(ctx context.Context, from, to domain.Address, _ domain.Amount) error {
	for _, account := range []domain.Address{from, to} {
		ok, err := p.store.Contains(ctx, account)
		if err != nil {
			return fmt.Errorf("allowlist lookup for %s: %w", account, err)
		}
		if !ok {
			return fmt.Errorf("account %s is not allow-listed", account)
		}
	}
	return nil
}

// Allow adds an account to the list.
func (p *Policy) Allow(ctx context.Context, account domain.Address) error {
	return p.store.Add(ctx, account)
}

// Deny removes an account from the list.
func (p *Policy) Deny(ctx context.Context, account domain.Address) error {
	return p.store.Remove(ctx, account)
}

// Package upgrade implements logic-pointer upgrades behind two independent
// authorization layers: the caller must hold the upgrader role AND an
// external authorizer must approve the specific implementation. With no
// authorizer configured, every upgrade is denied.
package upgrade

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"sentinelguard/internal/forensic"
	"sentinelguard/internal/ledger"
	"sentinelguard/pkg/domain"
	dErrors "sentinelguard/pkg/domainerrors"
)

// Authorizer is the second authorization layer. An error, a panic, or a nil
// authorizer all deny the upgrade.
type Authorizer interface {
	ValidateUpgrade(ctx context.Context, proposer, newImpl domain.Address) error
}

// RoleAuthority is the slice of the role service the manager needs.
type RoleAuthority interface {
	RequireRole(ctx context.Context, role domain.RoleID, account domain.Address) error
}

// Manager owns the logic pointer. It shares the storage block with the
// ledger service so the pointer survives the swap it performs.
type Manager struct {
	mu         sync.Mutex
	current    domain.Address
	block      *ledger.StorageBlock
	roles      RoleAuthority
	authorizer Authorizer
	hub        forensic.Recorder
	logger     *slog.Logger
	source     domain.Address
}

type Option func(*Manager)

func WithAuthorizer(a Authorizer, addr domain.Address) Option {
	return func(m *Manager) {
		m.authorizer = a
		m.block.SetAuthorizerAddress(addr)
	}
}

func WithRecorder(hub forensic.Recorder) Option {
	return func(m *Manager) { m.hub = hub }
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

func New(block *ledger.StorageBlock, roles RoleAuthority, initial domain.Address, opts ...Option) (*Manager, error) {
	if block == nil {
		return nil, fmt.Errorf("storage block is required")
	}
	if roles == nil {
		return nil, fmt.Errorf("role authority is required")
	}
	m := &Manager{
		current: initial,
		block:   block,
		roles:   roles,
		source:  "upgrade-manager",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Current returns the active implementation address.
func (m *Manager) Current() domain.Address {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Execute repoints the logic pointer to newImpl. Both gates must pass; the
// attempt is recorded at critical severity whether it succeeds or not.
func (m *Manager) Execute(ctx context.Context, caller, newImpl domain.Address) error {
	err := m.authorize(ctx, caller, newImpl)

	outcome := "succeeded"
	if err != nil {
		outcome = fmt.Sprintf("denied (%s)", dErrors.CodeOf(err))
	}
	forensic.TryLog(ctx, m.hub, m.logger, forensic.Entry{
		Source:   m.source,
		Actor:    caller,
		Severity: forensic.SeverityCritical,
		Category: forensic.CategoryUpgrade,
		Details:  fmt.Sprintf("upgrade to %q %s", newImpl, outcome),
	})
	if err != nil {
		return err
	}

	m.mu.Lock()
	previous := m.current
	m.current = newImpl
	m.mu.Unlock()

	m.block.RecordAction(fmt.Sprintf("upgrade/%s/%s", caller, newImpl))
	if m.logger != nil {
		m.logger.InfoContext(ctx, "logic pointer repointed",
			slog.String("from", string(previous)),
			slog.String("to", string(newImpl)))
	}
	return nil
}

func (m *Manager) authorize(ctx context.Context, caller, newImpl domain.Address) error {
	if newImpl.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "implementation address is required")
	}
	if err := m.roles.RequireRole(ctx, domain.RoleUpgrader, caller); err != nil {
		return err
	}
	if m.authorizer == nil {
		return dErrors.New(dErrors.CodeUpgradeNotAuthorized, "no upgrade authorizer configured")
	}
	if err := m.validate(ctx, caller, newImpl); err != nil {
		return err
	}
	return nil
}

// validate isolates authorizer faults: a panicking authorizer denies the
// upgrade instead of crashing the manager.
func (m *Manager) validate(ctx context.Context, caller, newImpl domain.Address) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = dErrors.Wrap(fmt.Errorf("authorizer panic: %v", r),
				dErrors.CodeUpgradeNotAuthorized, "upgrade rejected")
		}
	}()
	if vErr := m.authorizer.ValidateUpgrade(ctx, caller, newImpl); vErr != nil {
		return dErrors.Wrap(vErr, dErrors.CodeUpgradeNotAuthorized, "upgrade rejected")
	}
	return nil
}

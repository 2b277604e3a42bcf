// Package roles implements the capability table gating every privileged
// entry point. The admin role administers all others.
package roles

import (
	"context"
	"fmt"
	"log/slog"

	"sentinelguard/internal/forensic"
	"sentinelguard/pkg/domain"
	dErrors "sentinelguard/pkg/domainerrors"
)

// Store persists role grants. Add and Remove must be idempotent.
type Store interface {
	Add(ctx context.Context, role domain.RoleID, account domain.Address) error
	Remove(ctx context.Context, role domain.RoleID, account domain.Address) error
	Has(ctx context.Context, role domain.RoleID, account domain.Address) (bool, error)
	List(ctx context.Context) (map[domain.RoleID][]domain.Address, error)
}

// Service is the role authority.
type Service struct {
	store  Store
	hub    forensic.Recorder
	logger *slog.Logger
	source domain.Address
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithRecorder(hub forensic.Recorder) Option {
	return func(s *Service) { s.hub = hub }
}

// WithSource sets the address this component reports as the forensic source.
func WithSource(source domain.Address) Option {
	return func(s *Service) { s.source = source }
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("role store is required")
	}
	s := &Service{
		store:  store,
		source: "role-authority",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Seed grants the admin role without a caller check. It only succeeds while
// the role table holds no admin, so a deployed system cannot be re-seeded.
func (s *Service) Seed(ctx context.Context, admin domain.Address) error {
	if admin.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "admin address is required")
	}
	grants, err := s.store.List(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "list role grants")
	}
	if len(grants[domain.RoleAdmin]) > 0 {
		return dErrors.New(dErrors.CodeUnauthorized, "role table already seeded")
	}
	if err := s.store.Add(ctx, domain.RoleAdmin, admin); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "seed admin role")
	}
	return nil
}

// Grant gives an account a role. Only admins may grant; granting a role the
// account already holds is a no-op, not an error.
func (s *Service) Grant(ctx context.Context, caller domain.Address, role domain.RoleID, account domain.Address) error {
	if err := s.authorizeChange(ctx, caller, role, account); err != nil {
		return err
	}
	if err := s.store.Add(ctx, role, account); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "persist role grant")
	}

	forensic.TryLog(ctx, s.hub, s.logger, forensic.Entry{
		Source:   s.source,
		Actor:    caller,
		Severity: forensic.SeverityWarning,
		Category: forensic.CategoryRoleChange,
		Details:  fmt.Sprintf("granted %s to %s", role, account),
	})
	return nil
}

// Revoke removes a role from an account. Revoking a role the account does not
// hold is idempotent.
func (s *Service) Revoke(ctx context.Context, caller domain.Address, role domain.RoleID, account domain.Address) error {
	if err := s.authorizeChange(ctx, caller, role, account); err != nil {
		return err
	}
	if err := s.store.Remove(ctx, role, account); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "persist role revocation")
	}

	forensic.TryLog(ctx, s.hub, s.logger, forensic.Entry{
		Source:   s.source,
		Actor:    caller,
		Severity: forensic.SeverityWarning,
		Category: forensic.CategoryRoleChange,
		Details:  fmt.Sprintf("revoked %s from %s", role, account),
	})
	return nil
}

// HasRole reports whether the account holds the role.
func (s *Service) HasRole(ctx context.Context, role domain.RoleID, account domain.Address) (bool, error) {
	return s.store.Has(ctx, role, account)
}

// RequireRole is the precondition check at the top of privileged entry
// points. It fails with an unauthorized error and leaves no trace of a
// partial effect.
func (s *Service) RequireRole(ctx context.Context, role domain.RoleID, account domain.Address) error {
	ok, err := s.store.Has(ctx, role, account)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "check role")
	}
	if !ok {
		return dErrors.Newf(dErrors.CodeUnauthorized, "%s requires %s", account, role)
	}
	return nil
}

// List exposes the full role table for the unprivileged audit surface.
func (s *Service) List(ctx context.Context) (map[domain.RoleID][]domain.Address, error) {
	return s.store.List(ctx)
}

func (s *Service) authorizeChange(ctx context.Context, caller domain.Address, role domain.RoleID, account domain.Address) error {
	if !role.Valid() {
		return dErrors.Newf(dErrors.CodeBadRequest, "unknown role %q", role)
	}
	if account.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "account is required")
	}
	return s.RequireRole(ctx, domain.RoleAdmin, caller)
}

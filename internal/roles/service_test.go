package roles_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"sentinelguard/internal/forensic"
	"sentinelguard/internal/forensic/cooldown"
	forensicmem "sentinelguard/internal/forensic/store/memory"
	"sentinelguard/internal/roles"
	"sentinelguard/internal/roles/store/memory"
	"sentinelguard/pkg/domain"
	dErrors "sentinelguard/pkg/domainerrors"
)

const (
	admin    = domain.Address("admin-1")
	alice    = domain.Address("acct-alice")
	bob      = domain.Address("acct-bob")
	intruder = domain.Address("acct-intruder")
)

type RolesSuite struct {
	suite.Suite
	ctx context.Context
	svc *roles.Service
	hub *forensic.Hub
}

func TestRolesSuite(t *testing.T) {
	suite.Run(t, new(RolesSuite))
}

func (s *RolesSuite) SetupTest() {
	s.ctx = context.Background()

	hub, err := forensic.New(forensicmem.NewInMemoryStore(), cooldown.NewInMemoryStore())
	s.Require().NoError(err)
	s.hub = hub

	svc, err := roles.New(memory.NewInMemoryStore(), roles.WithRecorder(hub))
	s.Require().NoError(err)
	s.svc = svc

	s.Require().NoError(s.svc.Seed(s.ctx, admin))
}

func (s *RolesSuite) TestSeedOnlyOnce() {
	err := s.svc.Seed(s.ctx, intruder)
	s.Equal(dErrors.CodeUnauthorized, dErrors.CodeOf(err))

	ok, err := s.svc.HasRole(s.ctx, domain.RoleAdmin, intruder)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RolesSuite) TestGrantAndRevoke() {
	s.Require().NoError(s.svc.Grant(s.ctx, admin, domain.RoleMinter, alice))

	ok, err := s.svc.HasRole(s.ctx, domain.RoleMinter, alice)
	s.Require().NoError(err)
	s.True(ok)

	s.Require().NoError(s.svc.Revoke(s.ctx, admin, domain.RoleMinter, alice))

	ok, err = s.svc.HasRole(s.ctx, domain.RoleMinter, alice)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RolesSuite) TestGrantIsIdempotent() {
	s.Require().NoError(s.svc.Grant(s.ctx, admin, domain.RoleBurner, bob))
	s.Require().NoError(s.svc.Grant(s.ctx, admin, domain.RoleBurner, bob))

	grants, err := s.svc.List(s.ctx)
	s.Require().NoError(err)
	s.Equal([]domain.Address{bob}, grants[domain.RoleBurner])
}

func (s *RolesSuite) TestRevokeIsIdempotent() {
	// Bob never held the role; revoking is a no-op, not an error.
	s.NoError(s.svc.Revoke(s.ctx, admin, domain.RoleOperator, bob))
}

func (s *RolesSuite) TestNonAdminCannotGrant() {
	err := s.svc.Grant(s.ctx, intruder, domain.RoleMinter, intruder)
	s.Equal(dErrors.CodeUnauthorized, dErrors.CodeOf(err))

	ok, err := s.svc.HasRole(s.ctx, domain.RoleMinter, intruder)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RolesSuite) TestAdminCanAlwaysRevoke() {
	s.Require().NoError(s.svc.Grant(s.ctx, admin, domain.RoleUpgrader, alice))
	s.Require().NoError(s.svc.Revoke(s.ctx, admin, domain.RoleUpgrader, alice))

	ok, err := s.svc.HasRole(s.ctx, domain.RoleUpgrader, alice)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RolesSuite) TestRequireRole() {
	s.Require().NoError(s.svc.Grant(s.ctx, admin, domain.RoleMinter, alice))

	s.NoError(s.svc.RequireRole(s.ctx, domain.RoleMinter, alice))

	err := s.svc.RequireRole(s.ctx, domain.RoleMinter, bob)
	s.Equal(dErrors.CodeUnauthorized, dErrors.CodeOf(err))
}

func (s *RolesSuite) TestValidation() {
	err := s.svc.Grant(s.ctx, admin, "role.superuser", alice)
	s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))

	err = s.svc.Grant(s.ctx, admin, domain.RoleMinter, domain.ZeroAddress)
	s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
}

func (s *RolesSuite) TestRoleChangesAreLogged() {
	before, err := s.hub.RecordCount(s.ctx)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Grant(s.ctx, admin, domain.RoleMinter, alice))

	after, err := s.hub.RecordCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(before+1, after)

	record, err := s.hub.GetRecord(s.ctx, after)
	s.Require().NoError(err)
	s.Equal(forensic.CategoryRoleChange, record.Category)
	s.Equal(forensic.SeverityWarning, record.Severity)
	s.Equal(admin, record.Actor)
}

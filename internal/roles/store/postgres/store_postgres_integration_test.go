//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinelguard/pkg/domain"
	"sentinelguard/pkg/testutil/containers"
)

func TestStore_GrantLifecycle(t *testing.T) {
	ctx := context.Background()
	pg := containers.NewPostgresContainer(t)
	store := New(pg.DB)
	require.NoError(t, store.EnsureSchema(ctx))

	require.NoError(t, store.Add(ctx, domain.RoleMinter, "acct-a"))
	require.NoError(t, store.Add(ctx, domain.RoleMinter, "acct-a")) // idempotent

	ok, err := store.Has(ctx, domain.RoleMinter, "acct-a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Has(ctx, domain.RoleBurner, "acct-a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Remove(ctx, domain.RoleMinter, "acct-a"))
	require.NoError(t, store.Remove(ctx, domain.RoleMinter, "acct-a")) // idempotent

	ok, err = store.Has(ctx, domain.RoleMinter, "acct-a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_List(t *testing.T) {
	ctx := context.Background()
	pg := containers.NewPostgresContainer(t)
	store := New(pg.DB)
	require.NoError(t, store.EnsureSchema(ctx))

	require.NoError(t, store.Add(ctx, domain.RoleAdmin, "acct-root"))
	require.NoError(t, store.Add(ctx, domain.RoleMinter, "acct-b"))
	require.NoError(t, store.Add(ctx, domain.RoleMinter, "acct-a"))

	grants, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Address{"acct-root"}, grants[domain.RoleAdmin])
	assert.Equal(t, []domain.Address{"acct-a", "acct-b"}, grants[domain.RoleMinter])
}

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

func TestStore_ApplyAndGet(t *testing.T) {
	ctx := context.Background()
	pg := containers.NewPostgresContainer(t)
	store := New(pg.DB)
	require.NoError(t, store.EnsureSchema(ctx))

	require.NoError(t, store.Apply(ctx, map[domain.Address]domain.Amount{
		"acct-a": domain.NewAmount(70),
		"acct-b": domain.NewAmount(30),
	}))

	a, err := store.Get(ctx, "acct-a")
	require.NoError(t, err)
	assert.Equal(t, domain.NewAmount(70), a)

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStore_UnknownAccountHoldsZero(t *testing.T) {
	ctx := context.Background()
	pg := containers.NewPostgresContainer(t)
	store := New(pg.DB)
	require.NoError(t, store.EnsureSchema(ctx))

	balance, err := store.Get(ctx, "acct-ghost")
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestStore_SurvivesFull256BitValues(t *testing.T) {
	ctx := context.Background()
	pg := containers.NewPostgresContainer(t)
	store := New(pg.DB)
	require.NoError(t, store.EnsureSchema(ctx))

	// Max uint256: NUMERIC(78,0) must hold it without rounding.
	huge := domain.MustParseAmount("115792089237316195423570985008687907853269984665640564039457584007913129639935")
	require.NoError(t, store.Apply(ctx, map[domain.Address]domain.Amount{"acct-whale": huge}))

	got, err := store.Get(ctx, "acct-whale")
	require.NoError(t, err)
	assert.Equal(t, huge, got)
}

func TestStore_UpsertAndZeroEviction(t *testing.T) {
	ctx := context.Background()
	pg := containers.NewPostgresContainer(t)
	store := New(pg.DB)
	require.NoError(t, store.EnsureSchema(ctx))

	require.NoError(t, store.Apply(ctx, map[domain.Address]domain.Amount{"acct-a": domain.NewAmount(10)}))
	require.NoError(t, store.Apply(ctx, map[domain.Address]domain.Amount{"acct-a": domain.NewAmount(25)}))

	a, err := store.Get(ctx, "acct-a")
	require.NoError(t, err)
	assert.Equal(t, domain.NewAmount(25), a)

	require.NoError(t, store.Apply(ctx, map[domain.Address]domain.Amount{"acct-a": {}}))
	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

package allowlist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinelguard/pkg/domain"
)

func TestPolicy_BothPartiesMustBeListed(t *testing.T) {
	ctx := context.Background()
	p, err := New(NewInMemoryStore())
	require.NoError(t, err)

	require.NoError(t, p.Allow(ctx, "acct-a"))
	require.NoError(t, p.Allow(ctx, "acct-b"))

	assert.NoError(t, p.ValidateTransfer(ctx, "acct-a", "acct-b", domain.NewAmount(1)))

	// Receiver missing.
	err = p.ValidateTransfer(ctx, "acct-a", "acct-c", domain.NewAmount(1))
	assert.ErrorContains(t, err, "acct-c")

	// Sender removed.
	require.NoError(t, p.Deny(ctx, "acct-a"))
	err = p.ValidateTransfer(ctx, "acct-a", "acct-b", domain.NewAmount(1))
	assert.ErrorContains(t, err, "acct-a")
}

func TestPolicy_RequiresStore(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestInMemoryStore_List(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	require.NoError(t, store.Add(ctx, "acct-b"))
	require.NoError(t, store.Add(ctx, "acct-a"))
	require.NoError(t, store.Add(ctx, "acct-a")) // idempotent

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Address{"acct-a", "acct-b"}, list)

	require.NoError(t, store.Remove(ctx, "acct-a"))
	ok, err := store.Contains(ctx, "acct-a")
	require.NoError(t, err)
	assert.False(t, ok)
}

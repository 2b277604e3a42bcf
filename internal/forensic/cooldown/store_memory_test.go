package cooldown

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	_, ok, err := store.Last(ctx, "transfer/info")
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Now()
	require.NoError(t, store.Touch(ctx, "transfer/info", at))

	got, ok, err := store.Last(ctx, "transfer/info")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, got.Equal(at))

	// Buckets are isolated.
	_, ok, err = store.Last(ctx, "transfer/warning")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Reset(ctx, "transfer/info"))
	_, ok, err = store.Last(ctx, "transfer/info")
	require.NoError(t, err)
	assert.False(t, ok)
}

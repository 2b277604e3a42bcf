//go:build integration

package cooldown

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinelguard/pkg/testutil/containers"
)

func TestRedisStore_TouchAndLast(t *testing.T) {
	ctx := context.Background()
	rc := containers.NewRedisContainer(t)
	store := NewRedisStore(rc.Client, time.Minute)

	_, ok, err := store.Last(ctx, "transfer/info")
	require.NoError(t, err)
	assert.False(t, ok)

	stamp := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.Touch(ctx, "transfer/info", stamp))

	got, ok, err := store.Last(ctx, "transfer/info")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, stamp.Equal(got))

	// Buckets are independent.
	_, ok, err = store.Last(ctx, "transfer/critical")
	require.NoError(t, err)
	assert.False(t, ok)
}

package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The noop store must always miss and never fail, so callers built for
// degraded operation keep working with caching switched off.
func TestNoopStore(t *testing.T) {
	ctx := context.Background()
	store := NewNoopStore()

	require.NoError(t, store.SetWithTTL(ctx, "k", []byte("v"), time.Hour))
	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)

	n, err := store.Incr(ctx, "counter", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	swapped, err := store.CompareAndSwap(ctx, "k", []byte("a"), []byte("b"))
	require.NoError(t, err)
	assert.False(t, swapped)

	assert.NoError(t, store.Delete(ctx, "k"))
}

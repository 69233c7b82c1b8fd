package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, store.SetWithTTL(ctx, "k", []byte("v"), time.Hour))
	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, store.Delete(ctx, "k"))
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.SetWithTTL(ctx, "k", []byte("v"), 20*time.Millisecond))

	_, err := store.Get(ctx, "k")
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStore_Incr(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for want := int64(1); want <= 5; want++ {
		n, err := store.Incr(ctx, "counter", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	// Independent key starts from scratch.
	n, err := store.Incr(ctx, "other", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryStore_IncrTTLOnlyOnFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Incr(ctx, "counter", 30*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	// A later increment must not extend the original deadline.
	_, err = store.Incr(ctx, "counter", time.Hour)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	n, err := store.Incr(ctx, "counter", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "counter must restart after the first deadline passes")
}

func TestMemoryStore_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	// Missing key never swaps.
	swapped, err := store.CompareAndSwap(ctx, "k", []byte("issued"), []byte("consumed"))
	require.NoError(t, err)
	assert.False(t, swapped)

	require.NoError(t, store.SetWithTTL(ctx, "k", []byte("issued"), time.Hour))

	// Mismatched expectation leaves the value untouched.
	swapped, err = store.CompareAndSwap(ctx, "k", []byte("other"), []byte("consumed"))
	require.NoError(t, err)
	assert.False(t, swapped)
	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("issued"), got)

	// Matching expectation swaps exactly once.
	swapped, err = store.CompareAndSwap(ctx, "k", []byte("issued"), []byte("consumed"))
	require.NoError(t, err)
	assert.True(t, swapped)

	swapped, err = store.CompareAndSwap(ctx, "k", []byte("issued"), []byte("consumed"))
	require.NoError(t, err)
	assert.False(t, swapped)

	got, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("consumed"), got)
}

func TestMemoryStore_CompareAndSwapKeepsTTL(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.SetWithTTL(ctx, "k", []byte("issued"), 30*time.Millisecond))

	swapped, err := store.CompareAndSwap(ctx, "k", []byte("issued"), []byte("consumed"))
	require.NoError(t, err)
	require.True(t, swapped)

	time.Sleep(50 * time.Millisecond)
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss, "swap must not extend the record's lifetime")
}

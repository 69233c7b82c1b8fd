// Package kv abstracts the volatile key-value store shared by the identity
// cache and the rate limiter. Implementations must provide set-with-TTL,
// atomic increment-with-expiry and compare-and-swap as primitives; everything
// above this package is built on those three guarantees.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key does not exist or has expired.
var ErrMiss = errors.New("kv: key not found")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// Incr atomically increments the counter at key and returns the new value.
	// The first increment of a key starts its TTL; later increments within the
	// window must not extend it.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// CompareAndSwap replaces the value at key with replacement only if the
	// current value equals expected, preserving the key's TTL. It reports
	// whether the swap happened. A missing key is not an error; it simply
	// reports false.
	CompareAndSwap(ctx context.Context, key string, expected, replacement []byte) (bool, error)
}

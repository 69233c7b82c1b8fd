package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/FACorreiaa/go-contacts-api/app/kv"
	"github.com/FACorreiaa/go-contacts-api/app/observability/metrics"
)

const identityKeyPrefix = "user:"

// IdentityCache is a write-through cache of verified-token subjects to
// materialized user identities. It is a performance optimization only: every
// store failure degrades to a miss or is swallowed, and the system stays
// correct with a kv.NoopStore underneath.
//
// Invalidate is the correctness-critical operation. Role and verified flags
// gate authorization, so any mutation of the underlying user must invalidate
// the entry; a missed invalidation is a stale-privilege bug, not a staleness
// inconvenience.
type IdentityCache struct {
	store  kv.Store
	ttl    time.Duration
	logger *slog.Logger
}

func NewIdentityCache(store kv.Store, ttl time.Duration, logger *slog.Logger) *IdentityCache {
	return &IdentityCache{store: store, ttl: ttl, logger: logger}
}

// Get returns the cached identity for subject, or (nil, false) on miss.
// Store errors never propagate; they count as a miss.
func (c *IdentityCache) Get(ctx context.Context, subject string) (*UserAuth, bool) {
	raw, err := c.store.Get(ctx, identityKeyPrefix+subject)
	if err != nil {
		if !errors.Is(err, kv.ErrMiss) {
			c.logger.WarnContext(ctx, "Identity cache read failed, treating as miss",
				slog.String("subject", subject), slog.Any("error", err))
		}
		metrics.Get().IdentityCacheMissesTotal.Add(ctx, 1)
		return nil, false
	}

	var user UserAuth
	if err := json.Unmarshal(raw, &user); err != nil {
		c.logger.WarnContext(ctx, "Identity cache entry corrupt, invalidating",
			slog.String("subject", subject), slog.Any("error", err))
		c.Invalidate(ctx, subject)
		metrics.Get().IdentityCacheMissesTotal.Add(ctx, 1)
		return nil, false
	}
	metrics.Get().IdentityCacheHitsTotal.Add(ctx, 1)
	return &user, true
}

// Put stores a snapshot of user under subject with the configured TTL,
// overwriting any existing entry.
func (c *IdentityCache) Put(ctx context.Context, subject string, user *UserAuth) {
	raw, err := json.Marshal(user)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to marshal identity snapshot",
			slog.String("subject", subject), slog.Any("error", err))
		return
	}
	if err := c.store.SetWithTTL(ctx, identityKeyPrefix+subject, raw, c.ttl); err != nil {
		c.logger.WarnContext(ctx, "Identity cache write failed",
			slog.String("subject", subject), slog.Any("error", err))
	}
}

// Invalidate removes the entry for subject immediately.
func (c *IdentityCache) Invalidate(ctx context.Context, subject string) {
	if err := c.store.Delete(ctx, identityKeyPrefix+subject); err != nil {
		c.logger.WarnContext(ctx, "Identity cache invalidation failed",
			slog.String("subject", subject), slog.Any("error", err))
	}
}

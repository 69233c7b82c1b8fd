package auth

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-contacts-api/app/kv"
	"github.com/FACorreiaa/go-contacts-api/internal/api"
)

func newTestLimiter(window time.Duration) *RateLimiter {
	l := NewRateLimiter(kv.NewMemoryStore(), window, slog.Default())
	// Pin the clock one second into a window so retry-after math is stable.
	base := time.Unix((time.Now().Unix()/60)*60+1, 0)
	l.now = func() time.Time { return base }
	return l
}

func TestRateLimiter_AdmitUpToThreshold(t *testing.T) {
	ctx := context.Background()
	l := newTestLimiter(time.Minute)

	for i := 0; i < 5; i++ {
		_, err := l.Admit(ctx, "1.2.3.4", "login", 5)
		require.NoError(t, err, "request %d should be admitted", i+1)
	}

	retryAfter, err := l.Admit(ctx, "1.2.3.4", "login", 5)
	assert.ErrorIs(t, err, api.ErrRateLimited)
	assert.Greater(t, retryAfter, time.Duration(0))
	assert.LessOrEqual(t, retryAfter, time.Minute)
}

func TestRateLimiter_RejectedRequestsStillCount(t *testing.T) {
	ctx := context.Background()
	l := newTestLimiter(time.Minute)

	for i := 0; i < 3; i++ {
		l.Admit(ctx, "1.2.3.4", "login", 2)
	}
	// The window is saturated; even after the rejections the next call must
	// still be rejected rather than sneaking in.
	_, err := l.Admit(ctx, "1.2.3.4", "login", 2)
	assert.ErrorIs(t, err, api.ErrRateLimited)
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	l := newTestLimiter(time.Minute)

	_, err := l.Admit(ctx, "1.2.3.4", "login", 1)
	require.NoError(t, err)
	_, err = l.Admit(ctx, "1.2.3.4", "login", 1)
	require.ErrorIs(t, err, api.ErrRateLimited)

	// Different client, same route.
	_, err = l.Admit(ctx, "5.6.7.8", "login", 1)
	assert.NoError(t, err)

	// Same client, different route.
	_, err = l.Admit(ctx, "1.2.3.4", "signup", 1)
	assert.NoError(t, err)
}

func TestRateLimiter_WindowRollover(t *testing.T) {
	ctx := context.Background()
	l := newTestLimiter(time.Minute)

	_, err := l.Admit(ctx, "1.2.3.4", "login", 1)
	require.NoError(t, err)
	_, err = l.Admit(ctx, "1.2.3.4", "login", 1)
	require.ErrorIs(t, err, api.ErrRateLimited)

	base := l.now()
	l.now = func() time.Time { return base.Add(time.Minute) }

	_, err = l.Admit(ctx, "1.2.3.4", "login", 1)
	assert.NoError(t, err)
}

func TestRateLimiter_FailsClosedOnStoreOutage(t *testing.T) {
	ctx := context.Background()
	l := NewRateLimiter(failingStore{}, time.Minute, slog.Default())

	_, err := l.Admit(ctx, "1.2.3.4", "login", 5)
	assert.ErrorIs(t, err, api.ErrStoreUnavailable)
}

func TestRateLimiter_MiddlewareSetsRetryAfter(t *testing.T) {
	l := newTestLimiter(time.Minute)
	handler := l.Limit("login", 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "1.2.3.4"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if i == 0 {
			assert.Equal(t, http.StatusOK, rec.Code)
			continue
		}
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	}
}

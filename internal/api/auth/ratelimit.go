package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/FACorreiaa/go-contacts-api/app/kv"
	"github.com/FACorreiaa/go-contacts-api/app/observability/metrics"
	"github.com/FACorreiaa/go-contacts-api/internal/api"
)

// RateLimiter is a fixed-window counter keyed by (client, route, window).
// Fixed windows allow a burst of up to 2x the threshold straddling a window
// boundary; that approximation is accepted in exchange for a single atomic
// INCR per request.
//
// The limiter fails closed: if the volatile store is unreachable the request
// is rejected. It guards abuse-prone auth routes, so admitting unmetered
// traffic during a store outage is the worse failure mode.
type RateLimiter struct {
	store  kv.Store
	window time.Duration
	logger *slog.Logger

	now func() time.Time
}

func NewRateLimiter(store kv.Store, window time.Duration, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{store: store, window: window, logger: logger, now: time.Now}
}

// Admit counts the request against (clientKey, routeKey) in the current
// window. Above limit it returns api.ErrRateLimited with the seconds until
// the next window boundary; the increment stands either way, so rejected
// requests still consume the window.
func (l *RateLimiter) Admit(ctx context.Context, clientKey, routeKey string, limit int) (retryAfter time.Duration, err error) {
	windowSecs := int64(l.window.Seconds())
	nowUnix := l.now().Unix()
	windowID := nowUnix / windowSecs

	key := fmt.Sprintf("rl:%s:%s:%d", routeKey, clientKey, windowID)
	count, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		l.logger.WarnContext(ctx, "Rate limiter store unavailable, failing closed",
			slog.String("route", routeKey), slog.Any("error", err))
		return l.window, fmt.Errorf("%w: %s", api.ErrStoreUnavailable, err)
	}

	if count > int64(limit) {
		metrics.Get().RateLimitRejectionsTotal.Add(ctx, 1)
		secsToBoundary := (windowID+1)*windowSecs - nowUnix
		return time.Duration(secsToBoundary) * time.Second, api.ErrRateLimited
	}
	return 0, nil
}

// clientKeyFromRequest keys the window by client IP. RemoteAddr carries the
// ephemeral port unless chi's RealIP middleware rewrote it, so strip it.
func clientKeyFromRequest(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Limit wraps a route with the limiter, keyed by the client's IP. Rejections
// answer 429 with a Retry-After header in seconds.
func (l *RateLimiter) Limit(routeKey string, limit int) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			retryAfter, err := l.Admit(r.Context(), clientKeyFromRequest(r), routeKey, limit)
			if err != nil {
				if !errors.Is(err, api.ErrRateLimited) {
					l.logger.ErrorContext(r.Context(), "Rate limiter rejected on store failure",
						slog.String("route", routeKey), slog.Any("error", err))
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
				api.ErrorResponse(w, r, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

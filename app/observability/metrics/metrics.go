package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	LoginAttemptsTotal       metric.Int64Counter
	SignupRequestsTotal      metric.Int64Counter
	IdentityCacheHitsTotal   metric.Int64Counter
	IdentityCacheMissesTotal metric.Int64Counter
	RateLimitRejectionsTotal metric.Int64Counter
	ResetRequestsTotal       metric.Int64Counter
	ResetRedemptionsTotal    metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// Get returns the global metrics instance, initializing it once from the
// globally configured MeterProvider.
func Get() *AppMetrics {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("contacts-api")
		m := &AppMetrics{}

		var err error
		counters := []struct {
			dst  *metric.Int64Counter
			name string
			desc string
		}{
			{&m.LoginAttemptsTotal, "login_attempts_total", "Total number of login attempts"},
			{&m.SignupRequestsTotal, "signup_requests_total", "Total number of signup requests"},
			{&m.IdentityCacheHitsTotal, "identity_cache_hits_total", "Identity cache hits"},
			{&m.IdentityCacheMissesTotal, "identity_cache_misses_total", "Identity cache misses"},
			{&m.RateLimitRejectionsTotal, "rate_limit_rejections_total", "Requests rejected by the rate limiter"},
			{&m.ResetRequestsTotal, "password_reset_requests_total", "Password reset requests"},
			{&m.ResetRedemptionsTotal, "password_reset_redemptions_total", "Successful password reset redemptions"},
		}
		for _, c := range counters {
			*c.dst, err = meter.Int64Counter(c.name,
				metric.WithDescription(c.desc),
				metric.WithUnit("{request}"),
			)
			if err != nil {
				log.Fatalf("Metrics: Failed to create %s: %v", c.name, err)
			}
		}
		appMetrics = m
	})
	return appMetrics
}

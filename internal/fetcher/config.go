package fetcher

import (
	"suumo-checker/internal/config"
	"suumo-checker/internal/ratelimit"
)

// FromConfig builds the configured fetcher with its pacer and circuit breaker.
// The options are returned so callers can report pacer and breaker state.
func FromConfig(cfg *config.Config) (Fetcher, Options, error) {
	fc := cfg.Fetcher

	limiter := ratelimit.NewPortalLimiter(fc.GetRequestDelay(), fc.GetJitter())
	if fc.Adaptive {
		limiter.EnableAdaptive(ratelimit.AdaptiveConfig{
			Window:        fc.AdaptiveWindow,
			SlowThreshold: fc.SlowThreshold,
			SlowDelay:     fc.GetSlowDelay(),
			Cooldown:      fc.GetSlowCooldown(),
		})
	}

	opts := Options{
		UserAgent:  fc.UserAgent,
		Timeout:    fc.GetTimeout(),
		MaxRetries: fc.MaxRetries,
		RetryDelay: fc.GetRetryDelay(),
		ChromePath: fc.ChromePath,
		Limiter:    limiter,
		Breaker:    NewCircuitBreaker(fc.BreakerThreshold, fc.GetBreakerReset()),
	}
	f, err := New(fc.Mode, opts)
	if err != nil {
		return nil, Options{}, err
	}
	return f, opts, nil
}

package ratelimit

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// PortalLimiter paces requests to the listings portal: at most one request per
// baseDelay, plus a random jitter so the spacing does not look mechanical.
// With adaptive pacing enabled it also slows down while the recent failure
// rate is high.
type PortalLimiter struct {
	limiter *rate.Limiter
	jitter  time.Duration

	mu        sync.Mutex
	adaptive  *AdaptiveConfig
	results   []bool
	idx       int
	filled    bool
	slowUntil time.Time
	now       func() time.Time
}

// AdaptiveConfig controls slow mode
type AdaptiveConfig struct {
	Window        int           // number of recent attempts considered
	SlowThreshold float64       // failure rate that enters slow mode
	SlowDelay     time.Duration // extra delay per request while slow
	Cooldown      time.Duration // how long slow mode lasts once entered
}

// DefaultAdaptiveConfig returns the slow mode defaults
func DefaultAdaptiveConfig() AdaptiveConfig {
	return AdaptiveConfig{
		Window:        20,
		SlowThreshold: 0.20,
		SlowDelay:     10 * time.Second,
		Cooldown:      30 * time.Minute,
	}
}

// PortalStats is a snapshot for the stats endpoint
type PortalStats struct {
	Adaptive    bool    `json:"adaptive"`
	Slow        bool    `json:"slow"`
	FailureRate float64 `json:"failure_rate"`
	Observed    int     `json:"observed"`
}

// NewPortalLimiter creates a pacer. A zero baseDelay disables pacing.
func NewPortalLimiter(baseDelay, jitter time.Duration) *PortalLimiter {
	limit := rate.Inf
	if baseDelay > 0 {
		limit = rate.Every(baseDelay)
	}
	return &PortalLimiter{
		limiter: rate.NewLimiter(limit, 1),
		jitter:  jitter,
		now:     time.Now,
	}
}

// EnableAdaptive turns on slow mode. Zero fields fall back to the defaults.
func (pl *PortalLimiter) EnableAdaptive(cfg AdaptiveConfig) {
	def := DefaultAdaptiveConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.SlowThreshold <= 0 {
		cfg.SlowThreshold = def.SlowThreshold
	}
	if cfg.SlowDelay <= 0 {
		cfg.SlowDelay = def.SlowDelay
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}

	pl.mu.Lock()
	defer pl.mu.Unlock()
	pl.adaptive = &cfg
	pl.results = make([]bool, cfg.Window)
	pl.idx = 0
	pl.filled = false
	pl.slowUntil = time.Time{}
}

// Wait blocks until the next portal request may start or ctx is done.
func (pl *PortalLimiter) Wait(ctx context.Context) error {
	if err := pl.limiter.Wait(ctx); err != nil {
		return err
	}

	var d time.Duration
	if pl.jitter > 0 {
		d = time.Duration(rand.Int63n(int64(pl.jitter)))
	}
	d += pl.slowDelay()
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Observe records the outcome of one portal request. It is a no-op on a nil
// limiter or when adaptive pacing is off.
func (pl *PortalLimiter) Observe(success bool) {
	if pl == nil {
		return
	}
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if pl.adaptive == nil {
		return
	}

	pl.results[pl.idx] = success
	pl.idx++
	if pl.idx >= len(pl.results) {
		pl.idx = 0
		pl.filled = true
	}

	now := pl.now()
	if now.Before(pl.slowUntil) {
		return
	}
	if failRate := pl.failureRateLocked(); failRate >= pl.adaptive.SlowThreshold {
		pl.slowUntil = now.Add(pl.adaptive.Cooldown)
		log.Printf("[PortalLimiter] entering slow mode: failRate=%.2f threshold=%.2f cooldown=%v",
			failRate, pl.adaptive.SlowThreshold, pl.adaptive.Cooldown)
	}
}

// Slow reports whether slow mode is active
func (pl *PortalLimiter) Slow() bool {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.adaptive != nil && pl.now().Before(pl.slowUntil)
}

func (pl *PortalLimiter) slowDelay() time.Duration {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if pl.adaptive == nil || !pl.now().Before(pl.slowUntil) {
		return 0
	}
	return pl.adaptive.SlowDelay
}

// GetStats returns the adaptive pacing state
func (pl *PortalLimiter) GetStats() PortalStats {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if pl.adaptive == nil {
		return PortalStats{}
	}
	return PortalStats{
		Adaptive:    true,
		Slow:        pl.now().Before(pl.slowUntil),
		FailureRate: pl.failureRateLocked(),
		Observed:    pl.observedLocked(),
	}
}

func (pl *PortalLimiter) observedLocked() int {
	if pl.filled {
		return len(pl.results)
	}
	return pl.idx
}

func (pl *PortalLimiter) failureRateLocked() float64 {
	n := pl.observedLocked()
	if n == 0 {
		return 0
	}
	fail := 0
	for i := 0; i < n; i++ {
		if !pl.results[i] {
			fail++
		}
	}
	return float64(fail) / float64(n)
}

package ratelimit

import (
	"sync"
	"time"
)

// window counts events inside a trailing time span
type window struct {
	span  time.Duration
	limit int
	hits  []time.Time
}

func (w *window) prune(now time.Time) {
	cutoff := now.Add(-w.span)
	kept := w.hits[:0]
	for _, t := range w.hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	w.hits = kept
}

// full reports whether another hit would exceed the limit. A limit <= 0 means unlimited.
func (w *window) full() bool {
	return w.limit > 0 && len(w.hits) >= w.limit
}

func (w *window) remaining() int {
	if w.limit <= 0 {
		return -1
	}
	return max(0, w.limit-len(w.hits))
}

// RateLimiter guards the check endpoints with per-minute, per-hour and per-day caps
type RateLimiter struct {
	enabled bool
	now     func() time.Time

	minute window
	hour   window
	day    window
	mu     sync.Mutex
}

// NewRateLimiter creates a new rate limiter with the given limits
func NewRateLimiter(requestsPerMinute, requestsPerHour, requestsPerDay int, enabled bool) *RateLimiter {
	return &RateLimiter{
		enabled: enabled,
		now:     time.Now,
		minute:  window{span: time.Minute, limit: requestsPerMinute},
		hour:    window{span: time.Hour, limit: requestsPerHour},
		day:     window{span: 24 * time.Hour, limit: requestsPerDay},
	}
}

// AllowRequest records a request and returns true, or returns false if any cap is reached
func (rl *RateLimiter) AllowRequest() bool {
	if !rl.enabled {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.cleanup(now)

	if rl.minute.full() || rl.hour.full() || rl.day.full() {
		return false
	}

	rl.minute.hits = append(rl.minute.hits, now)
	rl.hour.hits = append(rl.hour.hits, now)
	rl.day.hits = append(rl.day.hits, now)
	return true
}

func (rl *RateLimiter) cleanup(now time.Time) {
	rl.minute.prune(now)
	rl.hour.prune(now)
	rl.day.prune(now)
}

// Stats contains rate limiter statistics. Remaining is -1 for an unlimited window.
type Stats struct {
	Enabled             bool `json:"enabled"`
	RequestsLastMinute  int  `json:"requests_last_minute"`
	RequestsLastHour    int  `json:"requests_last_hour"`
	RequestsLastDay     int  `json:"requests_last_day"`
	LimitPerMinute      int  `json:"limit_per_minute"`
	LimitPerHour        int  `json:"limit_per_hour"`
	LimitPerDay         int  `json:"limit_per_day"`
	RemainingThisMinute int  `json:"remaining_this_minute"`
	RemainingThisHour   int  `json:"remaining_this_hour"`
	RemainingThisDay    int  `json:"remaining_this_day"`
}

// GetStats returns current rate limiter statistics
func (rl *RateLimiter) GetStats() Stats {
	if !rl.enabled {
		return Stats{Enabled: false}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanup(rl.now())

	return Stats{
		Enabled:             true,
		RequestsLastMinute:  len(rl.minute.hits),
		RequestsLastHour:    len(rl.hour.hits),
		RequestsLastDay:     len(rl.day.hits),
		LimitPerMinute:      rl.minute.limit,
		LimitPerHour:        rl.hour.limit,
		LimitPerDay:         rl.day.limit,
		RemainingThisMinute: rl.minute.remaining(),
		RemainingThisHour:   rl.hour.remaining(),
		RemainingThisDay:    rl.day.remaining(),
	}
}

// Reset clears all tracked requests
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.minute.hits = nil
	rl.hour.hits = nil
	rl.day.hits = nil
}

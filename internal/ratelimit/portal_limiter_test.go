package ratelimit

import (
	"testing"
	"time"
)

func TestPortalLimiterObserveIsNoopWhenNotAdaptive(t *testing.T) {
	pl := NewPortalLimiter(0, 0)
	for i := 0; i < 10; i++ {
		pl.Observe(false)
	}
	if pl.Slow() {
		t.Error("slow mode should need EnableAdaptive")
	}
	if stats := pl.GetStats(); stats.Adaptive {
		t.Error("stats should report adaptive=false")
	}

	var nilLimiter *PortalLimiter
	nilLimiter.Observe(false)
}

func TestPortalLimiterEntersAndLeavesSlowMode(t *testing.T) {
	now := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	pl := NewPortalLimiter(0, 0)
	pl.now = func() time.Time { return now }
	pl.EnableAdaptive(AdaptiveConfig{Window: 4, SlowThreshold: 0.5, Cooldown: 10 * time.Minute})

	pl.Observe(true)
	pl.Observe(true)
	pl.Observe(false)
	if pl.Slow() {
		t.Fatal("1/3 failures should stay below threshold")
	}

	pl.Observe(false)
	if !pl.Slow() {
		t.Fatal("2/4 failures should enter slow mode")
	}
	stats := pl.GetStats()
	if stats.FailureRate != 0.5 || stats.Observed != 4 {
		t.Errorf("stats: got %+v", stats)
	}

	now = now.Add(11 * time.Minute)
	if pl.Slow() {
		t.Error("slow mode should end after cooldown")
	}
}

func TestPortalLimiterWindowRollsOver(t *testing.T) {
	pl := NewPortalLimiter(0, 0)
	pl.EnableAdaptive(AdaptiveConfig{Window: 2, SlowThreshold: 0.9})

	pl.Observe(false)
	pl.Observe(true)
	pl.Observe(true)

	stats := pl.GetStats()
	if stats.Observed != 2 {
		t.Errorf("observed: got %d, want 2", stats.Observed)
	}
	if stats.FailureRate != 0 {
		t.Errorf("oldest failure should have rolled out, got rate %v", stats.FailureRate)
	}
}

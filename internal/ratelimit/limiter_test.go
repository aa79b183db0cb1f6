// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ratelimit

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/ManuGH/subcallback/internal/metrics"
)

func TestLimiterGlobalBurst(t *testing.T) {
	l := New(Config{GlobalRate: 1, GlobalBurst: 5})

	allowed := 0
	for i := 0; i < 10; i++ {
		if l.Allow("router") {
			allowed++
		}
	}
	// One extra token may refill during the loop.
	if allowed < 5 || allowed > 6 {
		t.Errorf("expected ~5 admissions with burst=5, got %d", allowed)
	}
}

func TestLimiterPerHostIsolation(t *testing.T) {
	before := testutil.ToFloat64(metrics.AdmissionRejectTotal.WithLabelValues("host"))
	l := New(Config{PerHostRate: 0.001, PerHostBurst: 2})

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "other hosts keep their own budget")
	assert.Equal(t, 2, l.Hosts())

	after := testutil.ToFloat64(metrics.AdmissionRejectTotal.WithLabelValues("host"))
	assert.Equal(t, before+1, after)
}

func TestLimiterZeroRatesAreUnlimited(t *testing.T) {
	l := New(Config{})
	for i := 0; i < 1000; i++ {
		if !l.Allow("x") {
			t.Fatalf("request %d rejected with limits disabled", i)
		}
	}
	assert.Equal(t, 0, l.Hosts())
}

func TestLimiterCleanupDropsIdleHosts(t *testing.T) {
	now := time.Unix(1000, 0)
	l := New(Config{PerHostRate: 100, PerHostBurst: 100, CleanupInterval: time.Minute})
	l.now = func() time.Time { return now }
	l.lastCleanup = now

	assert.True(t, l.Allow("idle"))
	now = now.Add(2 * time.Minute)
	assert.True(t, l.Allow("fresh"))

	assert.Equal(t, 1, l.Hosts())
}

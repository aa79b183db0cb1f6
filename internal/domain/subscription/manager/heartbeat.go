// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manager

import (
	"context"
	"errors"
	"time"

	"github.com/ManuGH/subcallback/internal/domain/subscription/lifecycle"
	"github.com/ManuGH/subcallback/internal/metrics"
)

// HeartbeatScheduler probes router liveness on a fixed interval, independent of
// event traffic. Probe is expected to go through the session's single-flight
// send path.
type HeartbeatScheduler struct {
	Interval  time.Duration
	Threshold int
	Probe     func(ctx context.Context) error
	// OnLost is called at most once, with ErrLivenessLost or ErrRouterGone.
	OnLost func(err error)
	// OnResult observes the consecutive failure count after every probe.
	OnResult func(failures int)
}

// Run blocks until ctx ends or liveness is lost.
func (h *HeartbeatScheduler) Run(ctx context.Context) {
	if h.Interval <= 0 {
		return
	}
	ticker := time.NewTicker(h.Interval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		err := h.Probe(ctx)
		if ctx.Err() != nil {
			return
		}
		metrics.RecordHeartbeat(err == nil)
		if err == nil {
			failures = 0
			h.report(failures)
			continue
		}
		if errors.Is(err, lifecycle.ErrRouterGone) {
			h.OnLost(err)
			return
		}
		failures++
		h.report(failures)
		if failures >= h.Threshold {
			h.OnLost(errors.Join(lifecycle.ErrLivenessLost, err))
			return
		}
	}
}

func (h *HeartbeatScheduler) report(failures int) {
	if h.OnResult != nil {
		h.OnResult(failures)
	}
}

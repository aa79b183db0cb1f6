// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package metrics provides Prometheus collectors for the callback subscription service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// No subscription ids in labels: cardinality is bounded by states, kinds and reasons.

var (
	SessionsActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "subcallback_sessions",
		Help: "Current number of callback sessions by state.",
	}, []string{"state"})

	SessionsOpenedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subcallback_sessions_opened_total",
		Help: "Total subscription open attempts by result.",
	}, []string{"result"})

	SessionsClosedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subcallback_sessions_closed_total",
		Help: "Total closed sessions by close reason.",
	}, []string{"reason"})

	StateTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subcallback_state_transitions_total",
		Help: "Session state machine transitions.",
	}, []string{"state_from", "state_to"})

	SessionLifetime = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "subcallback_session_lifetime_seconds",
		Help:    "Time from subscription open to close.",
		Buckets: []float64{0.1, 1, 5, 30, 60, 300, 900, 3600, 14400},
	}, []string{"reason"})

	HandshakeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "subcallback_handshake_duration_seconds",
		Help:    "Latency of the initial callback check.",
		Buckets: prometheus.DefBuckets,
	})
)

// RecordOpen counts a subscription open attempt. result is "ok", "duplicate",
// "rejected" or "handshake_failed".
func RecordOpen(result string) {
	SessionsOpenedTotal.WithLabelValues(result).Inc()
}

// RecordTransition moves one session between state gauges.
func RecordTransition(from, to string) {
	if from == to {
		return
	}
	StateTransitionsTotal.WithLabelValues(from, to).Inc()
	if from != "" {
		SessionsActive.WithLabelValues(from).Dec()
	}
	if to != "closed" {
		SessionsActive.WithLabelValues(to).Inc()
	}
}

// RecordClose counts a closed session and observes its lifetime.
func RecordClose(reason string, opened time.Time) {
	if reason == "" {
		reason = "unknown"
	}
	SessionsClosedTotal.WithLabelValues(reason).Inc()
	SessionLifetime.WithLabelValues(reason).Observe(time.Since(opened).Seconds())
}

// ObserveHandshake records handshake latency.
func ObserveHandshake(d time.Duration) {
	HandshakeDuration.Observe(d.Seconds())
}

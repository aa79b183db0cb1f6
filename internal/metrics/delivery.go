// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DeliveryAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subcallback_delivery_attempts_total",
		Help: "Callback POST attempts by message kind and result.",
	}, []string{"kind", "result"})

	DeliveryRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subcallback_delivery_retries_total",
		Help: "Backoff retries scheduled by message kind.",
	}, []string{"kind"})

	DeliveryAbandonedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subcallback_delivery_abandoned_total",
		Help: "Messages given up on after exhausting attempts or hitting a fatal status.",
	}, []string{"kind", "cause"})

	DeliveryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "subcallback_delivery_duration_seconds",
		Help:    "Latency of callback POSTs by message kind.",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"kind"})

	QueueDepth = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "subcallback_queue_depth",
		Help:    "Per-session queue depth observed at enqueue time.",
		Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64, 128, 256},
	})

	HeartbeatsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subcallback_heartbeats_total",
		Help: "Heartbeat checks by result.",
	}, []string{"result"})

	CallbackStatusTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subcallback_callback_status_total",
		Help: "HTTP status codes returned by callback endpoints.",
	}, []string{"code"})
)

// RecordAttempt counts one delivery attempt.
func RecordAttempt(kind string, ok bool, d time.Duration) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	DeliveryAttemptsTotal.WithLabelValues(kind, result).Inc()
	DeliveryDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordRetry counts a scheduled retry.
func RecordRetry(kind string) {
	DeliveryRetriesTotal.WithLabelValues(kind).Inc()
}

// RecordAbandoned counts a message dropped after delivery failure.
func RecordAbandoned(kind, cause string) {
	DeliveryAbandonedTotal.WithLabelValues(kind, cause).Inc()
}

// ObserveQueueDepth records the queue length after an enqueue.
func ObserveQueueDepth(n int) {
	QueueDepth.Observe(float64(n))
}

// RecordHeartbeat counts one heartbeat check.
func RecordHeartbeat(ok bool) {
	if ok {
		HeartbeatsTotal.WithLabelValues("ok").Inc()
		return
	}
	HeartbeatsTotal.WithLabelValues("failed").Inc()
}

// RecordCallbackStatus counts an observed status code; 0 means no response.
func RecordCallbackStatus(code int) {
	label := "none"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	CallbackStatusTotal.WithLabelValues(label).Inc()
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "subcallback_circuit_breaker_state",
		Help: "Circuit breaker state by callback host (1 for the current state, 0 otherwise)",
	}, []string{"host", "state"})

	circuitBreakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subcallback_circuit_breaker_trips_total",
		Help: "Total number of circuit breaker trips (transitions to open state)",
	}, []string{"host"})

	circuitBreakerRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subcallback_circuit_breaker_rejections_total",
		Help: "Callback sends short-circuited by an open breaker",
	}, []string{"host"})
)

var circuitStates = []string{"closed", "half-open", "open"}

// SetCircuitBreakerState records the active circuit breaker state for a host.
func SetCircuitBreakerState(host, state string) {
	for _, s := range circuitStates {
		value := 0.0
		if s == state {
			value = 1.0
		}
		circuitBreakerState.WithLabelValues(host, s).Set(value)
	}
}

// RecordCircuitBreakerTrip increments the trip counter when a breaker opens.
func RecordCircuitBreakerTrip(host string) {
	circuitBreakerTrips.WithLabelValues(host).Inc()
}

// RecordCircuitBreakerRejection counts a send refused by an open breaker.
func RecordCircuitBreakerRejection(host string) {
	circuitBreakerRejections.WithLabelValues(host).Inc()
}

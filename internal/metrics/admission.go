// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

var (
	// AdmissionAdmitTotal counts admitted subscription opens.
	AdmissionAdmitTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "subcallback_admission_admit_total",
		Help: "Total number of admitted subscription requests.",
	})

	// AdmissionRejectTotal counts rejected subscription opens by scope.
	AdmissionRejectTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subcallback_admission_reject_total",
		Help: "Total number of rejected subscription requests, by limiter scope (global/host).",
	}, []string{"scope"})
)

// RecordAdmit increments the admit counter.
func RecordAdmit() {
	AdmissionAdmitTotal.Inc()
}

// RecordReject increments the reject counter for the given scope.
func RecordReject(scope string) {
	AdmissionRejectTotal.WithLabelValues(scope).Inc()
}

// CounterValue reads the current value of a plain counter.
func CounterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package health provides liveness and readiness probes with per-component
// status.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ManuGH/subcallback/internal/log"
)

// Status represents the overall health/readiness status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult represents the result of a component health check
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Response is the body of both probes.
type Response struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Version   string                 `json:"version,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Details   map[string]any         `json:"details,omitempty"`
}

// Checker defines the interface for health checks
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Manager runs the registered checkers.
type Manager struct {
	version  string
	timeout  time.Duration
	checkers []Checker
	details  func() map[string]any
}

// NewManager creates a new health check manager. Each checker gets timeout.
func NewManager(version string, timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Manager{version: version, timeout: timeout}
}

// RegisterChecker adds a readiness checker. Not safe to call once serving.
func (m *Manager) RegisterChecker(c Checker) {
	m.checkers = append(m.checkers, c)
}

// SetDetails installs a callback contributing extra fields to every response.
func (m *Manager) SetDetails(fn func() map[string]any) {
	m.details = fn
}

// Health is the liveness view: the process is up. Checks are not run.
func (m *Manager) Health() Response {
	resp := Response{Ready: true, Status: StatusHealthy, Version: m.version, Timestamp: time.Now()}
	if m.details != nil {
		resp.Details = m.details()
	}
	return resp
}

// Ready runs every checker. Any unhealthy component makes the service not ready.
func (m *Manager) Ready(ctx context.Context) Response {
	resp := m.Health()
	if len(m.checkers) == 0 {
		return resp
	}
	resp.Checks = make(map[string]CheckResult, len(m.checkers))
	for _, c := range m.checkers {
		cctx, cancel := context.WithTimeout(ctx, m.timeout)
		result := c.Check(cctx)
		cancel()
		resp.Checks[c.Name()] = result

		switch result.Status {
		case StatusUnhealthy:
			resp.Ready = false
			resp.Status = StatusUnhealthy
		case StatusDegraded:
			if resp.Status == StatusHealthy {
				resp.Status = StatusDegraded
			}
		}
	}
	return resp
}

// ServeHealth answers liveness probes. It always returns 200.
func (m *Manager) ServeHealth(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, r, http.StatusOK, m.Health())
}

// ServeReady answers readiness probes with 503 while not ready.
func (m *Manager) ServeReady(w http.ResponseWriter, r *http.Request) {
	resp := m.Ready(r.Context())
	code := http.StatusOK
	if !resp.Ready {
		code = http.StatusServiceUnavailable
	}
	writeResponse(w, r, code, resp)
}

func writeResponse(w http.ResponseWriter, r *http.Request, code int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger := log.WithComponentFromContext(r.Context(), "health")
		logger.Error().Err(err).
			Str(log.FieldEvent, "health.encode_error").
			Msg("failed to encode health response")
	}
}

// PingChecker reports a dependency unhealthy while ping fails.
type PingChecker struct {
	name string
	ping func(ctx context.Context) error
}

// NewPingChecker wraps ping as a Checker.
func NewPingChecker(name string, ping func(ctx context.Context) error) *PingChecker {
	return &PingChecker{name: name, ping: ping}
}

func (c *PingChecker) Name() string { return c.name }

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	if err := c.ping(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}

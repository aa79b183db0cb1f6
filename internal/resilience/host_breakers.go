// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package resilience

import (
	"sync"
	"time"
)

// HostBreakers lazily creates one CircuitBreaker per callback host. A zero
// threshold disables breaking entirely.
type HostBreakers struct {
	threshold    int
	resetTimeout time.Duration
	opts         []Option

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewHostBreakers returns a breaker set. threshold <= 0 disables it.
func NewHostBreakers(threshold int, resetTimeout time.Duration, opts ...Option) *HostBreakers {
	return &HostBreakers{
		threshold:    threshold,
		resetTimeout: resetTimeout,
		opts:         opts,
		breakers:     make(map[string]*CircuitBreaker),
	}
}

// Enabled reports whether breaking is active.
func (h *HostBreakers) Enabled() bool {
	return h != nil && h.threshold > 0
}

// For returns the breaker for host, or nil when disabled.
func (h *HostBreakers) For(host string) *CircuitBreaker {
	if !h.Enabled() {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	cb, ok := h.breakers[host]
	if !ok {
		cb = NewCircuitBreaker(host, h.threshold, h.resetTimeout, h.opts...)
		h.breakers[host] = cb
	}
	return cb
}

// Execute runs fn through the host's breaker, or directly when disabled.
func (h *HostBreakers) Execute(host string, fn func() error, isFailure func(error) bool) error {
	cb := h.For(host)
	if cb == nil {
		return fn()
	}
	return cb.Execute(fn, isFailure)
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package ratelimit gates new callback subscriptions globally and per callback host.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ManuGH/subcallback/internal/metrics"
)

// Config holds admission limits. A zero rate disables that scope.
type Config struct {
	GlobalRate  rate.Limit // subscriptions per second
	GlobalBurst int

	PerHostRate  rate.Limit
	PerHostBurst int

	// CleanupInterval drops idle per-host limiters.
	CleanupInterval time.Duration
}

// Limiter admits new subscriptions.
type Limiter struct {
	config Config

	global  *rate.Limiter
	perHost map[string]*hostLimiter
	mu      sync.Mutex

	lastCleanup time.Time
	now         func() time.Time
}

type hostLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// New creates a new admission limiter with the given config.
func New(config Config) *Limiter {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	l := &Limiter{
		config:  config,
		perHost: make(map[string]*hostLimiter),
		now:     time.Now,
	}
	if config.GlobalRate > 0 {
		l.global = rate.NewLimiter(config.GlobalRate, max(config.GlobalBurst, 1))
	}
	l.lastCleanup = l.now()
	return l
}

// Allow reports whether a new subscription towards host may be opened.
func (l *Limiter) Allow(host string) bool {
	if l.global != nil && !l.global.Allow() {
		metrics.RecordReject("global")
		return false
	}
	if l.config.PerHostRate > 0 && !l.hostLimiter(host).Allow() {
		metrics.RecordReject("host")
		return false
	}
	metrics.RecordAdmit()
	l.maybeCleanup()
	return true
}

func (l *Limiter) hostLimiter(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	h, ok := l.perHost[host]
	if !ok {
		h = &hostLimiter{lim: rate.NewLimiter(l.config.PerHostRate, max(l.config.PerHostBurst, 1))}
		l.perHost[host] = h
	}
	h.lastSeen = l.now()
	return h.lim
}

// maybeCleanup removes host limiters idle for a full cleanup interval.
func (l *Limiter) maybeCleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastCleanup) < l.config.CleanupInterval {
		return
	}
	for host, h := range l.perHost {
		if now.Sub(h.lastSeen) >= l.config.CleanupInterval {
			delete(l.perHost, host)
		}
	}
	l.lastCleanup = now
}

// Hosts returns the number of tracked host limiters.
func (l *Limiter) Hosts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.perHost)
}

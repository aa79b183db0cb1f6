// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manager

import (
	"fmt"
	"time"
)

// Settings are the protocol tunables. The manager has no defaults of its own;
// every value comes from the configuration layer.
type Settings struct {
	HandshakeTimeout          time.Duration
	RequestTimeout            time.Duration
	TerminalAckTimeout        time.Duration
	HeartbeatInterval         time.Duration // 0 disables heartbeats
	HeartbeatFailureThreshold int
	MaxDeliveryAttempts       int
	BackoffBase               time.Duration
	BackoffCeiling            time.Duration
	BackoffJitter             float64
}

// Validate checks that the settings describe a usable protocol configuration.
func (s Settings) Validate() error {
	if s.HandshakeTimeout <= 0 {
		return fmt.Errorf("HandshakeTimeout must be > 0, got %v", s.HandshakeTimeout)
	}
	if s.RequestTimeout <= 0 {
		return fmt.Errorf("RequestTimeout must be > 0, got %v", s.RequestTimeout)
	}
	if s.TerminalAckTimeout <= 0 {
		return fmt.Errorf("TerminalAckTimeout must be > 0, got %v", s.TerminalAckTimeout)
	}
	if s.HeartbeatInterval < 0 {
		return fmt.Errorf("HeartbeatInterval must be >= 0, got %v", s.HeartbeatInterval)
	}
	if s.HeartbeatFailureThreshold < 1 {
		return fmt.Errorf("HeartbeatFailureThreshold must be >= 1, got %d", s.HeartbeatFailureThreshold)
	}
	if s.MaxDeliveryAttempts < 1 {
		return fmt.Errorf("MaxDeliveryAttempts must be >= 1, got %d", s.MaxDeliveryAttempts)
	}
	if s.BackoffBase <= 0 {
		return fmt.Errorf("BackoffBase must be > 0, got %v", s.BackoffBase)
	}
	if s.BackoffCeiling < s.BackoffBase {
		return fmt.Errorf("BackoffCeiling (%v) must be >= BackoffBase (%v)", s.BackoffCeiling, s.BackoffBase)
	}
	if s.BackoffJitter < 0 || s.BackoffJitter > 1 {
		return fmt.Errorf("BackoffJitter must be within [0,1], got %v", s.BackoffJitter)
	}
	return nil
}

func (s Settings) retryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: s.MaxDeliveryAttempts,
		Base:        s.BackoffBase,
		Ceiling:     s.BackoffCeiling,
		Jitter:      s.BackoffJitter,
	}
}

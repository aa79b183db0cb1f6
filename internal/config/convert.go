// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"fmt"
	"slices"

	"github.com/ManuGH/subcallback/internal/domain/subscription/manager"
)

// ManagerSettings projects the callback section onto the protocol tunables.
func (c CallbackConfig) ManagerSettings() manager.Settings {
	return manager.Settings{
		HandshakeTimeout:          c.HandshakeTimeout,
		RequestTimeout:            c.RequestTimeout,
		TerminalAckTimeout:        c.TerminalAckTimeout,
		HeartbeatInterval:         c.HeartbeatInterval,
		HeartbeatFailureThreshold: c.HeartbeatFailureThreshold,
		MaxDeliveryAttempts:       c.MaxDeliveryAttempts,
		BackoffBase:               c.BackoffBase,
		BackoffCeiling:            c.BackoffCeiling,
		BackoffJitter:             c.BackoffJitter,
	}
}

// Clone returns a deep copy of the configuration.
func Clone(in AppConfig) AppConfig {
	out := in
	out.Callback.ContextHeaders = slices.Clone(in.Callback.ContextHeaders)
	out.Callback.AllowedHosts = slices.Clone(in.Callback.AllowedHosts)
	out.Callback.AllowedCIDRs = slices.Clone(in.Callback.AllowedCIDRs)
	return out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}

// String renders the configuration with credentials masked.
func (c AppConfig) String() string {
	return fmt.Sprintf("AppConfig{Listen:%s Store:%s Dialect:%s Heartbeat:%s Threshold:%d Attempts:%d Telemetry:%t RedisPassword:%s JWTSecret:%s}",
		c.Server.Listen, c.Store.Backend, c.Callback.Dialect, c.Callback.HeartbeatInterval,
		c.Callback.HeartbeatFailureThreshold, c.Callback.MaxDeliveryAttempts, c.Telemetry.Enabled,
		mask(c.Store.RedisPassword), mask(c.Admin.JWTSecret))
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"slices"
	"strings"
	"time"

	pnet "github.com/ManuGH/subcallback/internal/platform/net"
	"github.com/ManuGH/subcallback/internal/validate"
)

// Validate validates an AppConfig using the centralized validation package
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.ListenAddr("server.listen", cfg.Server.Listen)
	v.MinDuration("server.read_timeout", cfg.Server.ReadTimeout, time.Second)
	v.MinDuration("server.shutdown_timeout", cfg.Server.ShutdownTimeout, time.Second)
	v.NonNegative("server.rate_limit_rpm", cfg.Server.RateLimitRPM)
	// POST /graphql blocks for the handshake.
	if cfg.Server.WriteTimeout <= cfg.Callback.HandshakeTimeout {
		v.AddError("server.write_timeout", "must exceed callback.handshake_timeout", cfg.Server.WriteTimeout)
	}

	cb := cfg.Callback
	v.MinDuration("callback.handshake_timeout", cb.HandshakeTimeout, 10*time.Millisecond)
	v.MinDuration("callback.request_timeout", cb.RequestTimeout, 10*time.Millisecond)
	v.MinDuration("callback.terminal_ack_timeout", cb.TerminalAckTimeout, 10*time.Millisecond)
	if cb.HeartbeatInterval != 0 {
		v.MinDuration("callback.heartbeat_interval", cb.HeartbeatInterval, 100*time.Millisecond)
	}
	v.Range("callback.heartbeat_failure_threshold", cb.HeartbeatFailureThreshold, 1, 100)
	v.Range("callback.max_delivery_attempts", cb.MaxDeliveryAttempts, 1, 100)
	v.MinDuration("callback.backoff_base", cb.BackoffBase, time.Millisecond)
	v.MinDuration("callback.backoff_ceiling", cb.BackoffCeiling, cb.BackoffBase)
	v.FloatRange("callback.backoff_jitter", cb.BackoffJitter, 0, 1)
	v.OneOf("callback.dialect", cb.Dialect, []string{"sequenced", "apollo"})
	v.NonNegative("callback.breaker_threshold", cb.BreakerThreshold)
	if cb.BreakerThreshold > 0 {
		v.MinDuration("callback.breaker_reset", cb.BreakerReset, time.Second)
	}
	v.FloatRange("callback.admission_rps", cb.AdmissionRPS, 0, 1e6)
	v.NonNegative("callback.admission_burst", cb.AdmissionBurst)
	v.FloatRange("callback.per_host_rps", cb.PerHostRPS, 0, 1e6)
	v.NonNegative("callback.per_host_burst", cb.PerHostBurst)
	for _, h := range cb.ContextHeaders {
		v.NotEmpty("callback.context_headers", h)
	}
	if cb.RestrictCallbacks {
		if _, err := pnet.NewCallbackPolicy(cb.AllowedHosts, cb.AllowedCIDRs); err != nil {
			v.AddError("callback.allowed_hosts", err.Error(), strings.Join(append(slices.Clone(cb.AllowedHosts), cb.AllowedCIDRs...), ","))
		}
	}

	v.OneOf("store.backend", cfg.Store.Backend, []string{"memory", "sqlite", "redis"})
	switch cfg.Store.Backend {
	case "sqlite":
		v.NotEmpty("store.path", cfg.Store.Path)
		v.Path("store.path", cfg.Store.Path)
	case "redis":
		v.NotEmpty("store.redis_addr", cfg.Store.RedisAddr)
		v.Range("store.redis_db", cfg.Store.RedisDB, 0, 15)
	}

	if !validate.LogLevel(cfg.Log.Level).IsValid() {
		v.AddError("log.level", "invalid log level (must be: debug, info, warn, error)", cfg.Log.Level)
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
		v.FloatRange("telemetry.sampling_rate", cfg.Telemetry.SamplingRate, 0, 1)
	}

	if s := cfg.Admin.JWTSecret; s != "" && len(s) < 32 {
		v.AddError("admin.jwt_secret", "must be at least 32 bytes", "***")
	}

	v.MinDuration("engine.tick_interval", cfg.Engine.TickInterval, 10*time.Millisecond)

	return v.Err()
}

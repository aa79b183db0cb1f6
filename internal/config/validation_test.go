// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		field  string
	}{
		{"bad listen", func(c *AppConfig) { c.Server.Listen = "4001" }, "server.listen"},
		{"write timeout below handshake", func(c *AppConfig) { c.Server.WriteTimeout = c.Callback.HandshakeTimeout }, "server.write_timeout"},
		{"zero threshold", func(c *AppConfig) { c.Callback.HeartbeatFailureThreshold = 0 }, "callback.heartbeat_failure_threshold"},
		{"ceiling below base", func(c *AppConfig) { c.Callback.BackoffCeiling = time.Millisecond }, "callback.backoff_ceiling"},
		{"jitter above one", func(c *AppConfig) { c.Callback.BackoffJitter = 1.5 }, "callback.backoff_jitter"},
		{"unknown dialect", func(c *AppConfig) { c.Callback.Dialect = "ws" }, "callback.dialect"},
		{"sqlite without path", func(c *AppConfig) { c.Store.Backend = "sqlite" }, "store.path"},
		{"redis without addr", func(c *AppConfig) { c.Store.Backend = "redis" }, "store.redis_addr"},
		{"unknown backend", func(c *AppConfig) { c.Store.Backend = "postgres" }, "store.backend"},
		{"bad log level", func(c *AppConfig) { c.Log.Level = "trace" }, "log.level"},
		{"bad callback cidr", func(c *AppConfig) {
			c.Callback.RestrictCallbacks = true
			c.Callback.AllowedCIDRs = []string{"10.0.0.0/33"}
		}, "callback.allowed_hosts"},
		{"short jwt secret", func(c *AppConfig) { c.Admin.JWTSecret = "short" }, "admin.jwt_secret"},
		{"bad exporter", func(c *AppConfig) {
			c.Telemetry.Enabled = true
			c.Telemetry.Exporter = "zipkin"
		}, "telemetry.exporter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.field)
			}
		})
	}
}

func TestValidateAcceptsDisabledHeartbeat(t *testing.T) {
	cfg := Defaults()
	cfg.Callback.HeartbeatInterval = 0
	assert.NoError(t, Validate(cfg))
}

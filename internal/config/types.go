// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "time"

// AppConfig is the fully resolved configuration.
type AppConfig struct {
	Version string `yaml:"-"`

	Server    ServerConfig    `yaml:"server"`
	Callback  CallbackConfig  `yaml:"callback"`
	Store     StoreConfig     `yaml:"store"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Admin     AdminConfig     `yaml:"admin"`
	Engine    EngineConfig    `yaml:"engine"`
}

// ServerConfig configures the inbound HTTP listener.
type ServerConfig struct {
	Listen          string        `yaml:"listen"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// RateLimitRPM caps /graphql requests per client IP per minute. 0 disables.
	RateLimitRPM int `yaml:"rate_limit_rpm"`
}

// CallbackConfig holds the protocol tunables and outbound delivery options.
type CallbackConfig struct {
	HandshakeTimeout          time.Duration `yaml:"handshake_timeout"`
	RequestTimeout            time.Duration `yaml:"request_timeout"`
	TerminalAckTimeout        time.Duration `yaml:"terminal_ack_timeout"`
	HeartbeatInterval         time.Duration `yaml:"heartbeat_interval"`
	HeartbeatFailureThreshold int           `yaml:"heartbeat_failure_threshold"`
	MaxDeliveryAttempts       int           `yaml:"max_delivery_attempts"`
	BackoffBase               time.Duration `yaml:"backoff_base"`
	BackoffCeiling            time.Duration `yaml:"backoff_ceiling"`
	BackoffJitter             float64       `yaml:"backoff_jitter"`

	Dialect        string   `yaml:"dialect"`
	ContextHeaders []string `yaml:"context_headers"`

	// RestrictCallbacks refuses loopback, link-local and multicast callback
	// targets unless allowed below.
	RestrictCallbacks bool     `yaml:"restrict_callbacks"`
	AllowedHosts      []string `yaml:"allowed_hosts"`
	AllowedCIDRs      []string `yaml:"allowed_cidrs"`

	BreakerThreshold int           `yaml:"breaker_threshold"`
	BreakerReset     time.Duration `yaml:"breaker_reset"`

	AdmissionRPS   float64 `yaml:"admission_rps"`
	AdmissionBurst int     `yaml:"admission_burst"`
	PerHostRPS     float64 `yaml:"per_host_rps"`
	PerHostBurst   int     `yaml:"per_host_burst"`
}

// StoreConfig selects the session record backend.
type StoreConfig struct {
	Backend       string `yaml:"backend"`
	Path          string `yaml:"path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// LogConfig configures the zerolog base logger.
type LogConfig struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	Environment  string  `yaml:"environment"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

// AdminConfig protects the admin API.
type AdminConfig struct {
	// JWTSecret enables HS256 bearer auth on /admin when set.
	JWTSecret string `yaml:"jwt_secret"`
}

// EngineConfig configures the bundled demo execution engine.
type EngineConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "time"

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		Server: ServerConfig{
			Listen:          ":4001",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateLimitRPM:    600,
		},
		Callback: CallbackConfig{
			HandshakeTimeout:          5 * time.Second,
			RequestTimeout:            5 * time.Second,
			TerminalAckTimeout:        5 * time.Second,
			HeartbeatInterval:         5 * time.Second,
			HeartbeatFailureThreshold: 3,
			MaxDeliveryAttempts:       5,
			BackoffBase:               100 * time.Millisecond,
			BackoffCeiling:            5 * time.Second,
			BackoffJitter:             0.2,
			Dialect:                   "sequenced",
			BreakerReset:              30 * time.Second,
		},
		Store: StoreConfig{
			Backend: "memory",
		},
		Log: LogConfig{
			Level:   "info",
			Service: "subcallback",
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			Environment:  "production",
			SamplingRate: 1.0,
		},
		Engine: EngineConfig{
			TickInterval: time.Second,
		},
	}
}

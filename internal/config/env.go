// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "SUBCB_"

func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", v)
	}
}

func parseList(v string) ([]string, error) {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

func parseFloat(v string) (float64, error) { return strconv.ParseFloat(v, 64) }

func parseString(v string) (string, error) { return v, nil }

// isSensitiveKey reports whether an env key holds a credential.
func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	return strings.Contains(lower, "secret") || strings.Contains(lower, "password") || strings.Contains(lower, "token")
}

// applyEnv overrides *dst from key when set and non-empty. Invalid values keep
// the current value and are reported as errors.
func applyEnv[T any](l *Loader, key string, dst *T, parse func(string) (T, error)) {
	l.ConsumedEnvKeys[key] = struct{}{}
	raw, ok := l.lookup(key)
	if !ok || raw == "" {
		return
	}
	v, err := parse(raw)
	if err != nil {
		l.envErrs = append(l.envErrs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = v

	evt := l.logger.Debug().Str("key", key).Str("source", "environment")
	if isSensitiveKey(key) {
		evt = evt.Bool("sensitive", true)
	} else {
		evt = evt.Str("value", raw)
	}
	evt.Msg("using environment variable")
}

// mergeEnv applies every SUBCB_* override.
func (l *Loader) mergeEnv(cfg *AppConfig) {
	applyEnv(l, EnvPrefix+"LISTEN", &cfg.Server.Listen, parseString)
	applyEnv(l, EnvPrefix+"READ_TIMEOUT", &cfg.Server.ReadTimeout, time.ParseDuration)
	applyEnv(l, EnvPrefix+"WRITE_TIMEOUT", &cfg.Server.WriteTimeout, time.ParseDuration)
	applyEnv(l, EnvPrefix+"SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout, time.ParseDuration)
	applyEnv(l, EnvPrefix+"RATE_LIMIT_RPM", &cfg.Server.RateLimitRPM, strconv.Atoi)

	cb := &cfg.Callback
	applyEnv(l, EnvPrefix+"HANDSHAKE_TIMEOUT", &cb.HandshakeTimeout, time.ParseDuration)
	applyEnv(l, EnvPrefix+"REQUEST_TIMEOUT", &cb.RequestTimeout, time.ParseDuration)
	applyEnv(l, EnvPrefix+"TERMINAL_ACK_TIMEOUT", &cb.TerminalAckTimeout, time.ParseDuration)
	applyEnv(l, EnvPrefix+"HEARTBEAT_INTERVAL", &cb.HeartbeatInterval, time.ParseDuration)
	applyEnv(l, EnvPrefix+"HEARTBEAT_FAILURE_THRESHOLD", &cb.HeartbeatFailureThreshold, strconv.Atoi)
	applyEnv(l, EnvPrefix+"MAX_DELIVERY_ATTEMPTS", &cb.MaxDeliveryAttempts, strconv.Atoi)
	applyEnv(l, EnvPrefix+"BACKOFF_BASE", &cb.BackoffBase, time.ParseDuration)
	applyEnv(l, EnvPrefix+"BACKOFF_CEILING", &cb.BackoffCeiling, time.ParseDuration)
	applyEnv(l, EnvPrefix+"BACKOFF_JITTER", &cb.BackoffJitter, parseFloat)
	applyEnv(l, EnvPrefix+"DIALECT", &cb.Dialect, parseString)
	applyEnv(l, EnvPrefix+"CONTEXT_HEADERS", &cb.ContextHeaders, parseList)
	applyEnv(l, EnvPrefix+"RESTRICT_CALLBACKS", &cb.RestrictCallbacks, parseBool)
	applyEnv(l, EnvPrefix+"ALLOWED_HOSTS", &cb.AllowedHosts, parseList)
	applyEnv(l, EnvPrefix+"ALLOWED_CIDRS", &cb.AllowedCIDRs, parseList)
	applyEnv(l, EnvPrefix+"BREAKER_THRESHOLD", &cb.BreakerThreshold, strconv.Atoi)
	applyEnv(l, EnvPrefix+"BREAKER_RESET", &cb.BreakerReset, time.ParseDuration)
	applyEnv(l, EnvPrefix+"ADMISSION_RPS", &cb.AdmissionRPS, parseFloat)
	applyEnv(l, EnvPrefix+"ADMISSION_BURST", &cb.AdmissionBurst, strconv.Atoi)
	applyEnv(l, EnvPrefix+"PER_HOST_RPS", &cb.PerHostRPS, parseFloat)
	applyEnv(l, EnvPrefix+"PER_HOST_BURST", &cb.PerHostBurst, strconv.Atoi)

	applyEnv(l, EnvPrefix+"STORE_BACKEND", &cfg.Store.Backend, parseString)
	applyEnv(l, EnvPrefix+"STORE_PATH", &cfg.Store.Path, parseString)
	applyEnv(l, EnvPrefix+"REDIS_ADDR", &cfg.Store.RedisAddr, parseString)
	applyEnv(l, EnvPrefix+"REDIS_PASSWORD", &cfg.Store.RedisPassword, parseString)
	applyEnv(l, EnvPrefix+"REDIS_DB", &cfg.Store.RedisDB, strconv.Atoi)

	applyEnv(l, EnvPrefix+"LOG_LEVEL", &cfg.Log.Level, parseString)
	applyEnv(l, EnvPrefix+"LOG_SERVICE", &cfg.Log.Service, parseString)

	applyEnv(l, EnvPrefix+"TELEMETRY_ENABLED", &cfg.Telemetry.Enabled, parseBool)
	applyEnv(l, EnvPrefix+"TELEMETRY_EXPORTER", &cfg.Telemetry.Exporter, parseString)
	applyEnv(l, EnvPrefix+"TELEMETRY_ENDPOINT", &cfg.Telemetry.Endpoint, parseString)
	applyEnv(l, EnvPrefix+"TELEMETRY_SAMPLING_RATE", &cfg.Telemetry.SamplingRate, parseFloat)

	applyEnv(l, EnvPrefix+"ADMIN_JWT_SECRET", &cfg.Admin.JWTSecret, parseString)
	applyEnv(l, EnvPrefix+"ENGINE_TICK_INTERVAL", &cfg.Engine.TickInterval, time.ParseDuration)
}

// UnknownEnvKeys lists SUBCB_* variables in environ that no field consumed.
// Call after Load.
func (l *Loader) UnknownEnvKeys(environ []string) []string {
	var unknown []string
	for _, kv := range environ {
		key, _, _ := strings.Cut(kv, "=")
		if !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		if _, ok := l.ConsumedEnvKeys[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	return unknown
}

func osLookup(key string) (string, bool) { return os.LookupEnv(key) }

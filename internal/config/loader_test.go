// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader("", "v1.2.3").Load()
	require.NoError(t, err)

	assert.Equal(t, "v1.2.3", cfg.Version)
	assert.Equal(t, ":4001", cfg.Server.Listen)
	assert.Equal(t, 5*time.Second, cfg.Callback.HandshakeTimeout)
	assert.Equal(t, 3, cfg.Callback.HeartbeatFailureThreshold)
	assert.Equal(t, "sequenced", cfg.Callback.Dialect)
	assert.Equal(t, "memory", cfg.Store.Backend)
	require.NoError(t, cfg.Callback.ManagerSettings().Validate())
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  listen: "127.0.0.1:9000"
callback:
  heartbeat_interval: 2s
  heartbeat_failure_threshold: 5
  dialect: apollo
  context_headers: [Authorization, X-Tenant]
store:
  backend: sqlite
  path: /tmp/subcallback.db
`)
	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Listen)
	assert.Equal(t, 2*time.Second, cfg.Callback.HeartbeatInterval)
	assert.Equal(t, 5, cfg.Callback.HeartbeatFailureThreshold)
	assert.Equal(t, "apollo", cfg.Callback.Dialect)
	assert.Equal(t, []string{"Authorization", "X-Tenant"}, cfg.Callback.ContextHeaders)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	// untouched keys keep defaults
	assert.Equal(t, 5*time.Second, cfg.Callback.HandshakeTimeout)
}

func TestLoadEnvBeatsFile(t *testing.T) {
	path := writeConfig(t, "callback:\n  heartbeat_interval: 2s\n")
	t.Setenv("SUBCB_HEARTBEAT_INTERVAL", "750ms")
	t.Setenv("SUBCB_CONTEXT_HEADERS", "Authorization, X-Trace ,")
	t.Setenv("SUBCB_TELEMETRY_ENABLED", "yes")

	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, cfg.Callback.HeartbeatInterval)
	assert.Equal(t, []string{"Authorization", "X-Trace"}, cfg.Callback.ContextHeaders)
	assert.True(t, cfg.Telemetry.Enabled)
}

func TestLoadInvalidEnvIsFatal(t *testing.T) {
	t.Setenv("SUBCB_MAX_DELIVERY_ATTEMPTS", "many")
	_, err := NewLoader("", "").Load()
	require.ErrorIs(t, err, ErrInvalidEnv)
	assert.Contains(t, err.Error(), "SUBCB_MAX_DELIVERY_ATTEMPTS")
}

func TestLoadStrictUnknownField(t *testing.T) {
	path := writeConfig(t, "callback:\n  heartbeat_intervall: 2s\n")
	_, err := NewLoader(path, "").Load()
	require.ErrorIs(t, err, ErrUnknownConfigField)
}

func TestLoadRejectsMultipleDocuments(t *testing.T) {
	path := writeConfig(t, "server:\n  listen: \":1\"\n---\nserver:\n  listen: \":2\"\n")
	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple documents")
}

func TestLoadEmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, "")
	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)
	assert.Equal(t, ":4001", cfg.Server.Listen)
}

func TestLoadRejectsNonYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
}

func TestUnknownEnvKeys(t *testing.T) {
	l := NewLoader("", "")
	_, err := l.Load()
	require.NoError(t, err)

	got := l.UnknownEnvKeys([]string{"SUBCB_LISTEN=:1", "SUBCB_HEARTBEAT=1s", "HOME=/root"})
	assert.Equal(t, []string{"SUBCB_HEARTBEAT"}, got)
}

func TestStringMasksSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Admin.JWTSecret = "super-secret-value-that-is-long-enough"
	cfg.Store.RedisPassword = "hunter2"
	s := cfg.String()
	assert.NotContains(t, s, "super-secret")
	assert.NotContains(t, s, "hunter2")
}

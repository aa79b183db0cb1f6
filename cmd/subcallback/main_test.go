// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/subcallback/internal/api/middleware"
)

const secret = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestConfigValidate(t *testing.T) {
	good := writeConfig(t, "callback:\n  heartbeat_interval: 2s\n")
	bad := writeConfig(t, "callback:\n  heartbeat_intervall: 2s\n")

	var out, errOut bytes.Buffer
	assert.Equal(t, 0, configCLI([]string{"validate", "-f", good}, &out, &errOut))
	assert.Contains(t, out.String(), "valid")

	errOut.Reset()
	assert.Equal(t, 1, configCLI([]string{"validate", "--file", bad}, &out, &errOut))
	assert.Contains(t, errOut.String(), "heartbeat_intervall")
}

func TestConfigDumpMasksSecrets(t *testing.T) {
	path := writeConfig(t, "admin:\n  jwt_secret: "+secret+"\n")

	var out, errOut bytes.Buffer
	require.Equal(t, 0, configCLI([]string{"dump", "-f", path, "--format=json"}, &out, &errOut), errOut.String())
	assert.NotContains(t, out.String(), secret)
	assert.Contains(t, out.String(), "***")

	out.Reset()
	require.Equal(t, 0, configCLI([]string{"dump", "-f", path}, &out, &errOut))
	assert.Contains(t, out.String(), "heartbeat_interval")

	assert.Equal(t, 2, configCLI([]string{"dump", "-f", path, "--format=xml"}, &out, &errOut))
}

func TestConfigUnknownSubcommand(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 2, configCLI([]string{"explode"}, &out, &errOut))
	assert.Equal(t, 0, configCLI(nil, &out, &errOut))
}

func TestIssueToken(t *testing.T) {
	path := writeConfig(t, "admin:\n  jwt_secret: "+secret+"\n")

	var out, errOut bytes.Buffer
	require.Equal(t, 0, issueToken([]string{"-config", path, "-subject", "alice", "-ttl", "1m"}, &out, &errOut), errOut.String())

	claims, err := middleware.NewJWTAuth(secret).ValidateToken(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.True(t, claims.Admin)
	assert.Equal(t, "alice", claims.Name)
	assert.WithinDuration(t, time.Now().Add(time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestIssueTokenWithoutSecret(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	var out, errOut bytes.Buffer
	assert.Equal(t, 1, issueToken([]string{"-config", path}, &out, &errOut))
	assert.Contains(t, errOut.String(), "jwt_secret")
}

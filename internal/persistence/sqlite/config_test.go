// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAppliesWAL(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "wal.db"), DefaultConfig())
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var busy int
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busy))
	assert.Equal(t, 5000, busy)
}

func TestVerifyIntegrityHealthy(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "ok.db"), DefaultConfig())
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("CREATE TABLE t (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)

	problems, err := VerifyIntegrity(db, false)
	require.NoError(t, err)
	assert.Nil(t, problems)

	problems, err = VerifyIntegrity(db, true)
	require.NoError(t, err)
	assert.Nil(t, problems)
}

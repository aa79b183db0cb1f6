// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/subcallback/internal/domain/subscription/model"
	"github.com/ManuGH/subcallback/internal/domain/subscription/ports"
	"github.com/ManuGH/subcallback/internal/persistence/sqlite"
)

const schemaVersion = 1

// SqliteStore implements RecordStore on a local SQLite file.
type SqliteStore struct {
	DB *sql.DB
}

// NewSqliteStore opens dbPath, checks its integrity and applies migrations.
func NewSqliteStore(dbPath string) (*SqliteStore, error) {
	db, err := sqlite.Open(dbPath, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}

	problems, err := sqlite.VerifyIntegrity(db, false)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("record store: integrity check: %w", err)
	}
	if len(problems) > 0 {
		_ = db.Close()
		return nil, fmt.Errorf("record store: database corrupt: %s", strings.Join(problems, "; "))
	}

	s := &SqliteStore{DB: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("record store: migration failed: %w", err)
	}
	return s, nil
}

func (s *SqliteStore) Close() error {
	return s.DB.Close()
}

func (s *SqliteStore) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *SqliteStore) migrate() error {
	var currentVersion int
	if err := s.DB.QueryRow("PRAGMA user_version").Scan(&currentVersion); err != nil {
		return err
	}
	if currentVersion >= schemaVersion {
		return nil
	}

	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := `
	CREATE TABLE IF NOT EXISTS subscriptions (
		subscription_id TEXT PRIMARY KEY,
		callback_url TEXT NOT NULL,
		state TEXT NOT NULL,
		reason TEXT NOT NULL,
		last_seq INTEGER NOT NULL,
		acked_seq INTEGER NOT NULL,
		pending INTEGER NOT NULL,
		heartbeat_interval_ms INTEGER NOT NULL,
		heartbeat_failures INTEGER NOT NULL,
		owner TEXT NOT NULL,
		created_at_ms INTEGER NOT NULL,
		updated_at_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_subscriptions_owner ON subscriptions(owner);
	`
	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SqliteStore) Put(ctx context.Context, rec *model.Record) error {
	if rec == nil || rec.SubscriptionID == "" {
		return errors.New("sqlite store: record without subscription id")
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO subscriptions (
			subscription_id, callback_url, state, reason, last_seq, acked_seq, pending,
			heartbeat_interval_ms, heartbeat_failures, owner, created_at_ms, updated_at_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(subscription_id) DO UPDATE SET
			callback_url = excluded.callback_url,
			state = excluded.state,
			reason = excluded.reason,
			last_seq = excluded.last_seq,
			acked_seq = excluded.acked_seq,
			pending = excluded.pending,
			heartbeat_interval_ms = excluded.heartbeat_interval_ms,
			heartbeat_failures = excluded.heartbeat_failures,
			owner = excluded.owner,
			updated_at_ms = excluded.updated_at_ms`,
		rec.SubscriptionID, rec.CallbackURL, string(rec.State), string(rec.Reason),
		int64(rec.LastSeq), int64(rec.AckedSeq), rec.Pending,
		rec.HeartbeatIntervalMs, rec.HeartbeatFailures, rec.Owner,
		rec.CreatedAt.UnixMilli(), rec.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("sqlite store: put %s: %w", rec.SubscriptionID, err)
	}
	return nil
}

const selectColumns = `subscription_id, callback_url, state, reason, last_seq, acked_seq, pending,
	heartbeat_interval_ms, heartbeat_failures, owner, created_at_ms, updated_at_ms`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*model.Record, error) {
	var (
		rec                model.Record
		state, reason      string
		lastSeq, ackedSeq  int64
		createdMs, updated int64
	)
	if err := row.Scan(&rec.SubscriptionID, &rec.CallbackURL, &state, &reason, &lastSeq, &ackedSeq, &rec.Pending,
		&rec.HeartbeatIntervalMs, &rec.HeartbeatFailures, &rec.Owner, &createdMs, &updated); err != nil {
		return nil, err
	}
	rec.State = model.SessionState(state)
	rec.Reason = model.ReasonCode(reason)
	rec.LastSeq = uint64(lastSeq)
	rec.AckedSeq = uint64(ackedSeq)
	rec.CreatedAt = time.UnixMilli(createdMs).UTC()
	rec.UpdatedAt = time.UnixMilli(updated).UTC()
	return &rec, nil
}

func (s *SqliteStore) Get(ctx context.Context, id string) (*model.Record, error) {
	row := s.DB.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM subscriptions WHERE subscription_id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ports.ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite store: get %s: %w", id, err)
	}
	return rec, nil
}

func (s *SqliteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.DB.ExecContext(ctx, "DELETE FROM subscriptions WHERE subscription_id = ?", id); err != nil {
		return fmt.Errorf("sqlite store: delete %s: %w", id, err)
	}
	return nil
}

func (s *SqliteStore) List(ctx context.Context) ([]*model.Record, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT "+selectColumns+" FROM subscriptions ORDER BY subscription_id")
	if err != nil {
		return nil, fmt.Errorf("sqlite store: list: %w", err)
	}
	defer rows.Close()

	var out []*model.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite store: scan: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

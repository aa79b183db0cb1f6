// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ports

import (
	"context"
	"errors"

	"github.com/ManuGH/subcallback/internal/domain/subscription/model"
)

// ErrRecordNotFound is returned by RecordStore.Get for unknown ids.
var ErrRecordNotFound = errors.New("record not found")

// RecordStore persists the operator-facing view of live sessions.
type RecordStore interface {
	Put(ctx context.Context, rec *model.Record) error
	Get(ctx context.Context, id string) (*model.Record, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*model.Record, error)
	Ping(ctx context.Context) error
	Close() error
}

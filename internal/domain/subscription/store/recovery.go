// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package store

import (
	"context"
	"fmt"

	"github.com/ManuGH/subcallback/internal/domain/subscription/model"
	"github.com/ManuGH/subcallback/internal/domain/subscription/ports"
	"github.com/ManuGH/subcallback/internal/log"
	"github.com/ManuGH/subcallback/internal/metrics"
)

// PurgeOrphans removes records left behind by a previous process. A callback
// session cannot be resumed once its event stream is gone, so every record
// found at startup is dropped. The router notices through its own heartbeat
// expectations. Records owned by keepOwner are left untouched.
func PurgeOrphans(ctx context.Context, s ports.RecordStore, keepOwner string) (int, error) {
	logger := log.WithComponentFromContext(ctx, "store")

	recs, err := s.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list records: %w", err)
	}
	purged := 0
	for _, rec := range recs {
		if keepOwner != "" && rec.Owner == keepOwner {
			continue
		}
		if err := s.Delete(ctx, rec.SubscriptionID); err != nil {
			return purged, fmt.Errorf("delete orphan %s: %w", rec.SubscriptionID, err)
		}
		purged++
		metrics.RecordClose(string(model.ROrphaned), rec.CreatedAt)
		logger.Info().
			Str(log.FieldEvent, "store.orphan_purged").
			Str(log.FieldSubscriptionID, rec.SubscriptionID).
			Str(log.FieldOwner, rec.Owner).
			Str("last_state", string(rec.State)).
			Msg("purged orphaned subscription record")
	}
	return purged, nil
}

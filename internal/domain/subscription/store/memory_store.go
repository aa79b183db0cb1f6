// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package store provides RecordStore backends for session records.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ManuGH/subcallback/internal/domain/subscription/model"
	"github.com/ManuGH/subcallback/internal/domain/subscription/ports"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*model.Record
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*model.Record)}
}

func (s *MemoryStore) Put(_ context.Context, rec *model.Record) error {
	if rec == nil || rec.SubscriptionID == "" {
		return fmt.Errorf("memory store: record without subscription id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.SubscriptionID] = rec.Clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrRecordNotFound, id)
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]*model.Record, error) {
	s.mu.RLock()
	out := make([]*model.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].SubscriptionID < out[j].SubscriptionID })
	return out, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

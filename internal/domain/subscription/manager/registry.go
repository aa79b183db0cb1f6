// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manager

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ManuGH/subcallback/internal/domain/subscription/lifecycle"
	"github.com/ManuGH/subcallback/internal/domain/subscription/model"
)

// SessionRegistry is the process-wide table of live sessions. It never holds
// two sessions with the same id.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[model.SubscriptionID]*Session
}

// NewSessionRegistry returns an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[model.SubscriptionID]*Session)}
}

// Create builds and registers a session for id. build runs under the registry
// lock and must not call back into the registry.
func (r *SessionRegistry) Create(id model.SubscriptionID, build func() *Session) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[id]; exists {
		return nil, fmt.Errorf("%w: %s", lifecycle.ErrDuplicateSubscription, id)
	}
	s := build()
	r.sessions[id] = s
	return s, nil
}

// Lookup returns the live session for id.
func (r *SessionRegistry) Lookup(id model.SubscriptionID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove deletes id if it still maps to s. It reports whether an entry was removed.
func (r *SessionRegistry) Remove(id model.SubscriptionID, s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[id]; ok && cur == s {
		delete(r.sessions, id)
		return true
	}
	return false
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Snapshot returns the live sessions ordered by id.
func (r *SessionRegistry) Snapshot() []*Session {
	r.mu.RLock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

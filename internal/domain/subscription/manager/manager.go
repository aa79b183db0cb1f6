// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package manager implements the callback subscription protocol: per-session
// state machine, ordered delivery queue, heartbeat scheduling and the
// process-wide session registry.
package manager

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ManuGH/subcallback/internal/domain/subscription/lifecycle"
	"github.com/ManuGH/subcallback/internal/domain/subscription/model"
	"github.com/ManuGH/subcallback/internal/domain/subscription/ports"
	"github.com/ManuGH/subcallback/internal/log"
	"github.com/ManuGH/subcallback/internal/metrics"
)

// ErrInvalidRequest rejects an open request before any session exists.
var ErrInvalidRequest = errors.New("invalid subscription request")

// Admitter gates new subscriptions, keyed by callback host.
type Admitter interface {
	Allow(host string) bool
}

// OpenRequest describes a subscription handed over by the execution engine.
type OpenRequest struct {
	SubscriptionID model.SubscriptionID
	CallbackURL    string
	Verifier       string
	// HeartbeatInterval overrides Settings.HeartbeatInterval when set; zero disables heartbeats.
	HeartbeatInterval *time.Duration
	ContextHeaders    map[string]string
}

// Manager is the engine-facing facade over the session registry.
type Manager struct {
	transport ports.Transport
	store     ports.RecordStore
	notifier  ports.Notifier
	admission Admitter
	owner     string
	logger    zerolog.Logger
	storeTTL  time.Duration

	settingsMu sync.RWMutex
	settings   Settings

	registry *SessionRegistry
	workers  workerGroup
	closing  atomic.Bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithStore persists session records on every state change.
func WithStore(s ports.RecordStore) Option {
	return func(m *Manager) { m.store = s }
}

// WithNotifier receives one close signal per session.
func WithNotifier(n ports.Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithAdmission gates StartSubscription.
func WithAdmission(a Admitter) Option {
	return func(m *Manager) { m.admission = a }
}

// WithOwner sets the instance identity written into persisted records.
func WithOwner(owner string) Option {
	return func(m *Manager) { m.owner = owner }
}

// WithLogger replaces the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// New validates settings and returns a Manager ready to accept subscriptions.
func New(settings Settings, transport ports.Transport, opts ...Option) (*Manager, error) {
	if transport == nil {
		return nil, errors.New("transport must be set")
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	m := &Manager{
		transport: transport,
		notifier:  ports.NopNotifier{},
		logger:    log.WithComponent("subscriptions"),
		settings:  settings,
		registry:  NewSessionRegistry(),
		storeTTL:  2 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.owner == "" {
		m.owner = uuid.NewString()
	}
	return m, nil
}

// Settings returns the settings applied to newly opened sessions.
func (m *Manager) Settings() Settings {
	m.settingsMu.RLock()
	defer m.settingsMu.RUnlock()
	return m.settings
}

// UpdateSettings swaps the settings for sessions opened from now on.
func (m *Manager) UpdateSettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	m.settingsMu.Lock()
	m.settings = s
	m.settingsMu.Unlock()
	m.logger.Info().Str(log.FieldEvent, "settings.updated").Msg("callback settings updated")
	return nil
}

// StartSubscription registers a session and performs the handshake. It blocks
// up to the handshake timeout and returns only Active sessions.
func (m *Manager) StartSubscription(ctx context.Context, req OpenRequest) (*Session, error) {
	if m.closing.Load() {
		return nil, lifecycle.ErrShutdown
	}
	if err := validateRequest(req); err != nil {
		metrics.RecordOpen("invalid")
		return nil, err
	}
	host := hostOf(req.CallbackURL)
	if m.admission != nil && !m.admission.Allow(host) {
		metrics.RecordOpen("rejected")
		return nil, fmt.Errorf("%w: %s", lifecycle.ErrAdmissionRejected, host)
	}

	settings := m.Settings()
	s, err := m.registry.Create(req.SubscriptionID, func() *Session {
		return newSession(m, req, settings)
	})
	if err != nil {
		metrics.RecordOpen("duplicate")
		return nil, err
	}
	metrics.RecordTransition("", string(model.StatePending))
	rec := s.Snapshot()
	s.persist(&rec)

	if err := s.handshake(ctx); err != nil {
		metrics.RecordOpen("handshake_failed")
		s.logger.Warn().Err(err).Str(log.FieldEvent, "session.handshake_failed").Msg("callback handshake failed")
		return nil, err
	}

	if !m.workers.Go(s.runDelivery) {
		s.terminate(lifecycle.Event{Kind: lifecycle.EvShutdown})
		return nil, lifecycle.ErrShutdown
	}
	if s.heartbeat > 0 && !m.workers.Go(s.runHeartbeat) {
		s.terminate(lifecycle.Event{Kind: lifecycle.EvShutdown})
		return nil, lifecycle.ErrShutdown
	}

	metrics.RecordOpen("ok")
	s.logger.Info().
		Str(log.FieldEvent, "session.opened").
		Dur("heartbeat_interval", s.heartbeat).
		Msg("subscription active")
	return s, nil
}

func validateRequest(req OpenRequest) error {
	if req.SubscriptionID == "" {
		return fmt.Errorf("%w: subscription id is required", ErrInvalidRequest)
	}
	u, err := url.Parse(req.CallbackURL)
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: callback url %q must be an absolute http(s) url", ErrInvalidRequest, req.CallbackURL)
	}
	if req.HeartbeatInterval != nil && *req.HeartbeatInterval < 0 {
		return fmt.Errorf("%w: negative heartbeat interval", ErrInvalidRequest)
	}
	return nil
}

func (m *Manager) lookup(id model.SubscriptionID) (*Session, error) {
	s, ok := m.registry.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", lifecycle.ErrSessionNotFound, id)
	}
	return s, nil
}

// OnNextEvent queues a data message for id.
func (m *Manager) OnNextEvent(id model.SubscriptionID, payload map[string]any) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	return s.Publish(payload)
}

// OnStreamComplete begins graceful termination of id.
func (m *Manager) OnStreamComplete(id model.SubscriptionID) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	return s.Complete()
}

// OnStreamError terminates id with an error message carrying reason.
func (m *Manager) OnStreamError(id model.SubscriptionID, reason string) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	return s.Fail(reason)
}

// IsActive reports whether id is registered and in the Active state.
func (m *Manager) IsActive(id model.SubscriptionID) bool {
	s, ok := m.registry.Lookup(id)
	return ok && s.State() == model.StateActive
}

// Get returns the snapshot of one live session.
func (m *Manager) Get(id model.SubscriptionID) (model.Record, error) {
	s, err := m.lookup(id)
	if err != nil {
		return model.Record{}, err
	}
	return s.Snapshot(), nil
}

// Terminate closes id immediately. Nothing further is sent to the router.
func (m *Manager) Terminate(id model.SubscriptionID) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	if !s.terminate(lifecycle.Event{Kind: lifecycle.EvTerminate}) {
		return fmt.Errorf("%w: %s", lifecycle.ErrSessionNotFound, id)
	}
	return nil
}

// Sessions returns snapshots of every live session ordered by id.
func (m *Manager) Sessions() []model.Record {
	live := m.registry.Snapshot()
	out := make([]model.Record, 0, len(live))
	for _, s := range live {
		out = append(out, s.Snapshot())
	}
	return out
}

// Len returns the number of live sessions.
func (m *Manager) Len() int { return m.registry.Len() }

// Shutdown closes every session and waits for their goroutines to exit.
func (m *Manager) Shutdown(ctx context.Context) error {
	if !m.closing.CompareAndSwap(false, true) {
		return m.workers.CloseAndWait(ctx)
	}
	sessions := m.registry.Snapshot()
	m.logger.Info().
		Str(log.FieldEvent, "manager.shutdown").
		Int("sessions", len(sessions)).
		Msg("closing all subscriptions")
	for _, s := range sessions {
		s.terminate(lifecycle.Event{Kind: lifecycle.EvShutdown})
	}
	return m.workers.CloseAndWait(ctx)
}

func (m *Manager) persist(rec *model.Record) {
	if m.store == nil || rec == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.storeTTL)
	defer cancel()
	if err := m.store.Put(ctx, rec); err != nil {
		m.logger.Warn().Err(err).
			Str(log.FieldEvent, "store.put_failed").
			Str(log.FieldSubscriptionID, rec.SubscriptionID).
			Msg("failed to persist session record")
	}
}

func (m *Manager) forget(id model.SubscriptionID) {
	if m.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.storeTTL)
	defer cancel()
	if err := m.store.Delete(ctx, string(id)); err != nil {
		m.logger.Warn().Err(err).
			Str(log.FieldEvent, "store.delete_failed").
			Str(log.FieldSubscriptionID, string(id)).
			Msg("failed to delete session record")
	}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manager

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/subcallback/internal/domain/subscription/lifecycle"
	"github.com/ManuGH/subcallback/internal/domain/subscription/model"
	"github.com/ManuGH/subcallback/internal/domain/subscription/ports"
	"github.com/ManuGH/subcallback/internal/log"
	"github.com/ManuGH/subcallback/internal/metrics"
)

// Session is one callback subscription. Its state is mutated only by its own
// delivery and heartbeat goroutines and by the Manager's engine-facing calls.
type Session struct {
	id        model.SubscriptionID
	target    ports.Target
	heartbeat time.Duration
	settings  Settings
	m         *Manager
	logger    zerolog.Logger

	// sendMu is the single-flight token: held for the duration of one POST.
	sendMu sync.Mutex

	mu        sync.Mutex
	state     model.SessionState
	reason    model.ReasonCode
	lastSeq   uint64
	ackedSeq  uint64
	failures  int
	createdAt time.Time
	updatedAt time.Time
	err       error

	// storeMu orders record writes. Once forgotten, no Put reaches the store.
	storeMu   sync.Mutex
	storedAt  time.Time
	forgotten bool

	queue  *EventQueue
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func newSession(m *Manager, req OpenRequest, settings Settings) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	hb := settings.HeartbeatInterval
	if req.HeartbeatInterval != nil {
		hb = *req.HeartbeatInterval
	}
	now := time.Now()
	s := &Session{
		id: req.SubscriptionID,
		target: ports.Target{
			URL:      req.CallbackURL,
			Verifier: req.Verifier,
			Headers:  req.ContextHeaders,
		},
		heartbeat: hb,
		settings:  settings,
		m:         m,
		state:     model.StatePending,
		createdAt: now,
		updatedAt: now,
		queue:     NewEventQueue(),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	s.logger = m.logger.With().
		Str(log.FieldSubscriptionID, string(req.SubscriptionID)).
		Str(log.FieldCallbackHost, hostOf(req.CallbackURL)).
		Logger()
	return s
}

// ID returns the subscription id.
func (s *Session) ID() model.SubscriptionID { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() model.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed once the session reaches Closed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err reports why the session closed. It is nil while the session is open and
// after a normal completion.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Snapshot returns the operator-facing view of the session.
func (s *Session) Snapshot() model.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.recordLocked()
}

func (s *Session) recordLocked() *model.Record {
	return &model.Record{
		SubscriptionID:      string(s.id),
		CallbackURL:         s.target.URL,
		State:               s.state,
		Reason:              s.reason,
		LastSeq:             s.lastSeq,
		AckedSeq:            s.ackedSeq,
		Pending:             s.queue.Len(),
		HeartbeatIntervalMs: s.heartbeat.Milliseconds(),
		HeartbeatFailures:   s.failures,
		Owner:               s.m.owner,
		CreatedAt:           s.createdAt,
		UpdatedAt:           s.updatedAt,
	}
}

// Publish enqueues a data message. The sequence number is assigned here, so
// retries of the same message never consume another one.
func (s *Session) Publish(payload map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.StatePending && s.state != model.StateActive {
		return fmt.Errorf("%w: %s is %s", lifecycle.ErrSessionClosed, s.id, s.state)
	}
	msg := model.NewNext(s.id, s.lastSeq+1, payload)
	if err := s.queue.Enqueue(msg); err != nil {
		return fmt.Errorf("%w: %s", err, s.id)
	}
	s.lastSeq = msg.Seq
	return nil
}

// Complete queues the normal-termination message after any pending events.
func (s *Session) Complete() error {
	return s.beginTermination(lifecycle.Event{Kind: lifecycle.EvStreamCompleted}, false, func(seq uint64) model.Message {
		return model.NewComplete(s.id, seq)
	})
}

// Fail queues an error message after any pending events.
func (s *Session) Fail(reasons ...string) error {
	if len(reasons) == 0 {
		reasons = []string{"subscription stream failed"}
	}
	return s.beginTermination(lifecycle.Event{Kind: lifecycle.EvStreamFailed}, false, func(seq uint64) model.Message {
		return model.NewError(s.id, seq, reasons...)
	})
}

func (s *Session) beginTermination(ev lifecycle.Event, discard bool, build func(seq uint64) model.Message) error {
	s.mu.Lock()
	from := s.state
	if from == model.StateTerminating || from.IsTerminal() {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", lifecycle.ErrSessionClosed, s.id, from)
	}
	to, reason, err := lifecycle.Apply(from, s.reason, ev)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", s.id, err)
	}
	if discard {
		if n := s.queue.Clear(); n > 0 {
			s.logger.Warn().Str(log.FieldEvent, "session.queue_discarded").Int("dropped", n).Msg("discarding undelivered events")
		}
	}
	msg := build(s.lastSeq + 1)
	if err := s.queue.Enqueue(msg); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", err, s.id)
	}
	s.lastSeq = msg.Seq
	s.state, s.reason, s.updatedAt = to, reason, time.Now()
	rec := s.recordLocked()
	s.mu.Unlock()

	s.transitioned(from, to, ev.Kind, rec)
	return nil
}

// fire applies ev and runs the side effects of the resulting transition. It
// reports false if ev is not legal in the current state.
func (s *Session) fire(ev lifecycle.Event, cause error) bool {
	s.mu.Lock()
	from := s.state
	to, reason, err := lifecycle.Apply(from, s.reason, ev)
	if err != nil {
		s.mu.Unlock()
		return false
	}
	s.state, s.reason, s.updatedAt = to, reason, time.Now()
	if to.IsTerminal() {
		s.err = closeError(reason, cause)
	}
	rec := s.recordLocked()
	s.mu.Unlock()

	s.transitioned(from, to, ev.Kind, rec)
	if to.IsTerminal() {
		s.finish(rec, cause)
	}
	return true
}

func closeError(reason model.ReasonCode, cause error) error {
	class := lifecycle.ReasonErrorClass(reason)
	if class == nil {
		return nil
	}
	if cause == nil || errors.Is(cause, class) {
		if cause != nil {
			return cause
		}
		return class
	}
	return fmt.Errorf("%w: %w", class, cause)
}

func (s *Session) transitioned(from, to model.SessionState, ev lifecycle.EventKind, rec *model.Record) {
	if from == to {
		return
	}
	metrics.RecordTransition(string(from), string(to))
	s.logger.Info().
		Str(log.FieldEvent, "session.transition").
		Str(log.FieldOldState, string(from)).
		Str(log.FieldNewState, string(to)).
		Str(log.FieldReason, string(rec.Reason)).
		Str("trigger", ev.String()).
		Msg("session state changed")
	if !to.IsTerminal() {
		s.persist(rec)
	}
}

// persist writes rec unless the session was already forgotten or a newer
// record has been written.
func (s *Session) persist(rec *model.Record) {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()
	if s.forgotten || rec.UpdatedAt.Before(s.storedAt) {
		return
	}
	s.m.persist(rec)
	s.storedAt = rec.UpdatedAt
}

// forget deletes the record and blocks every later persist.
func (s *Session) forget() {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()
	s.forgotten = true
	s.m.forget(s.id)
}

// finish releases everything the session owns. It runs exactly once, on the
// single transition into Closed.
func (s *Session) finish(rec *model.Record, cause error) {
	s.cancel()
	s.queue.Close()
	s.m.registry.Remove(s.id, s)
	s.forget()
	metrics.RecordClose(string(rec.Reason), s.createdAt)

	s.mu.Lock()
	err := s.err
	s.mu.Unlock()

	evt := s.logger.Info()
	if err != nil {
		evt = s.logger.Warn().AnErr("cause", cause)
	}
	evt.Str(log.FieldEvent, "session.closed").
		Str(log.FieldReason, string(rec.Reason)).
		Uint64(log.FieldSeq, rec.LastSeq).
		Uint64("acked_seq", rec.AckedSeq).
		Msg("subscription closed")

	s.m.notifier.SessionClosed(s.id, rec.Reason, err)
	close(s.done)
}

// terminate closes the session immediately without sending anything further.
func (s *Session) terminate(ev lifecycle.Event) bool {
	return s.fire(ev, nil)
}

// send performs one POST under the single-flight token.
func (s *Session) send(ctx context.Context, msg model.Message) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	timeout := s.settings.RequestTimeout
	switch {
	case msg.Kind == model.KindHandshake:
		timeout = s.settings.HandshakeTimeout
	case msg.Kind.IsTerminal():
		timeout = s.settings.TerminalAckTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	status, err := s.m.transport.Send(cctx, s.target, msg)
	err = classify(status, err)
	metrics.RecordAttempt(string(msg.Kind), err == nil, time.Since(start))
	metrics.RecordCallbackStatus(status)

	evt := s.logger.Debug()
	if err != nil {
		evt = evt.Err(err)
	}
	evt.Str(log.FieldEvent, "callback.sent").
		Str(log.FieldKind, string(msg.Kind)).
		Uint64(log.FieldSeq, msg.Seq).
		Int(log.FieldStatus, status).
		Msg("callback message sent")
	return err
}

func classify(status int, err error) error {
	if err != nil {
		return err
	}
	if status >= 200 && status < 300 {
		return nil
	}
	return &lifecycle.StatusError{Status: status}
}

func (s *Session) handshake(ctx context.Context) error {
	hctx, cancel := context.WithTimeout(s.ctx, s.settings.HandshakeTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	start := time.Now()
	err := s.send(hctx, model.NewHandshake(s.id))
	metrics.ObserveHandshake(time.Since(start))
	if err != nil {
		s.fire(lifecycle.Event{Kind: lifecycle.EvHandshakeFailed}, err)
		return fmt.Errorf("%w: %s: %w", lifecycle.ErrHandshakeFailed, s.id, err)
	}
	if !s.fire(lifecycle.Event{Kind: lifecycle.EvHandshakeAcked}, nil) {
		return fmt.Errorf("%w: %s: %w", lifecycle.ErrHandshakeFailed, s.id, lifecycle.ErrSessionClosed)
	}
	return nil
}

func (s *Session) delivered(msg model.Message) {
	s.mu.Lock()
	if msg.Seq > s.ackedSeq {
		s.ackedSeq = msg.Seq
	}
	s.mu.Unlock()
	if !msg.Kind.IsTerminal() {
		s.fire(lifecycle.Event{Kind: lifecycle.EvDelivered}, nil)
	}
}

// runDelivery owns the queue's consumer side for the lifetime of the session.
func (s *Session) runDelivery() {
	policy := s.settings.retryPolicy()
	for {
		err := s.queue.Drain(s.ctx, s.send, policy, s.delivered)
		if s.ctx.Err() != nil {
			return
		}
		switch {
		case err == nil:
			s.fire(lifecycle.Event{Kind: lifecycle.EvTerminalAcked}, nil)
			return
		case isTerminalFailure(err):
			s.logger.Warn().Err(err).Str(log.FieldEvent, "session.terminal_unacked").Msg("terminal message not acknowledged")
			s.fire(lifecycle.Event{Kind: lifecycle.EvTerminalTimeout}, nil)
			return
		case errors.Is(err, lifecycle.ErrEncodingFailed):
			if s.State() == model.StateActive {
				if terr := s.beginTermination(lifecycle.Event{Kind: lifecycle.EvEncodingFailed}, true, func(seq uint64) model.Message {
					return model.NewError(s.id, seq, "subscription payload could not be encoded")
				}); terr == nil {
					continue
				}
			}
			s.logger.Error().Err(err).Str(log.FieldEvent, "session.event_dropped").Msg("dropping unencodable event")
			continue
		case errors.Is(err, lifecycle.ErrRouterGone):
			s.fire(lifecycle.Event{Kind: lifecycle.EvRouterGone}, err)
			return
		default:
			s.fire(lifecycle.Event{Kind: lifecycle.EvDeliveryExhausted}, err)
			return
		}
	}
}

func (s *Session) runHeartbeat() {
	h := &HeartbeatScheduler{
		Interval:  s.heartbeat,
		Threshold: s.settings.HeartbeatFailureThreshold,
		Probe: func(ctx context.Context) error {
			s.mu.Lock()
			seq := s.lastSeq
			s.mu.Unlock()
			return s.send(ctx, model.NewHeartbeat(s.id, seq))
		},
		OnResult: func(failures int) {
			s.mu.Lock()
			s.failures = failures
			s.mu.Unlock()
			if failures > 0 {
				s.logger.Warn().Str(log.FieldEvent, "heartbeat.failed").Int(log.FieldFailures, failures).Msg("heartbeat check failed")
			}
		},
		OnLost: func(err error) {
			ev := lifecycle.EvLivenessLost
			if errors.Is(err, lifecycle.ErrRouterGone) {
				ev = lifecycle.EvRouterGone
			}
			s.fire(lifecycle.Event{Kind: ev}, err)
		},
	}
	h.Run(s.ctx)
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manager

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ManuGH/subcallback/internal/domain/subscription/model"
	"github.com/ManuGH/subcallback/internal/domain/subscription/ports"
)

type respondFunc func(ctx context.Context, msg model.Message) (int, error)

// fakeTransport records every attempt and answers via respond (200 by default).
type fakeTransport struct {
	mu      sync.Mutex
	sent    []model.Message
	targets []ports.Target
	respond respondFunc
	delay   time.Duration

	inflight    atomic.Int32
	maxInflight atomic.Int32
}

func (f *fakeTransport) Send(ctx context.Context, target ports.Target, msg model.Message) (int, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		cur := f.maxInflight.Load()
		if n <= cur || f.maxInflight.CompareAndSwap(cur, n) {
			break
		}
	}

	f.mu.Lock()
	f.sent = append(f.sent, msg)
	f.targets = append(f.targets, target)
	respond := f.respond
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if respond == nil {
		return 200, nil
	}
	return respond(ctx, msg)
}

func (f *fakeTransport) setRespond(r respondFunc) {
	f.mu.Lock()
	f.respond = r
	f.mu.Unlock()
}

// messages returns recorded attempts, optionally filtered by kind.
func (f *fakeTransport) messages(kinds ...model.MessageKind) []model.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(kinds) == 0 {
		return append([]model.Message(nil), f.sent...)
	}
	var out []model.Message
	for _, m := range f.sent {
		for _, k := range kinds {
			if m.Kind == k {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

type closeCall struct {
	id     model.SubscriptionID
	reason model.ReasonCode
	err    error
}

type closeRecorder struct {
	mu    sync.Mutex
	calls []closeCall
}

func (r *closeRecorder) SessionClosed(id model.SubscriptionID, reason model.ReasonCode, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, closeCall{id: id, reason: reason, err: err})
}

func (r *closeRecorder) snapshot() []closeCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]closeCall(nil), r.calls...)
}

func testSettings() Settings {
	return Settings{
		HandshakeTimeout:          time.Second,
		RequestTimeout:            time.Second,
		TerminalAckTimeout:        time.Second,
		HeartbeatInterval:         0,
		HeartbeatFailureThreshold: 3,
		MaxDeliveryAttempts:       3,
		BackoffBase:               time.Millisecond,
		BackoffCeiling:            5 * time.Millisecond,
		BackoffJitter:             0,
	}
}

func newTestManager(t *testing.T, settings Settings, tr ports.Transport, opts ...Option) (*Manager, *closeRecorder) {
	t.Helper()
	rec := &closeRecorder{}
	opts = append([]Option{WithNotifier(rec), WithOwner("test-owner")}, opts...)
	m, err := New(settings, tr, opts...)
	require.NoError(t, err)
	return m, rec
}

func shutdown(t *testing.T, m *Manager) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
}

func waitClosed(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(3 * time.Second):
		t.Fatalf("session %s did not close, state=%s", s.ID(), s.State())
	}
}

func openReq(id string) OpenRequest {
	return OpenRequest{
		SubscriptionID: model.SubscriptionID(id),
		CallbackURL:    "http://router.local/callback/" + id,
		Verifier:       "verifier-" + id,
	}
}

func durationPtr(d time.Duration) *time.Duration { return &d }

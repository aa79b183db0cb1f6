// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manager

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/subcallback/internal/callback"
	"github.com/ManuGH/subcallback/internal/domain/subscription/model"
)

// slowRouter answers every callback after delay.
func slowRouter(t *testing.T, delay time.Duration) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		hits.Add(1)
		select {
		case <-time.After(delay):
			w.WriteHeader(http.StatusNoContent)
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestHandshakeUsesHandshakeTimeoutOverHTTP(t *testing.T) {
	srv, _ := slowRouter(t, 1500*time.Millisecond)
	settings := testSettings()
	settings.RequestTimeout = time.Second
	settings.HandshakeTimeout = 4 * time.Second
	settings.TerminalAckTimeout = 4 * time.Second

	m, _ := newTestManager(t, settings, callback.NewTransport(callback.Codec{Dialect: callback.DialectSequenced}))
	defer shutdown(t, m)

	req := openReq("slow-handshake")
	req.CallbackURL = srv.URL + "/callback/slow-handshake"
	s, err := m.StartSubscription(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.StateActive, s.State())

	require.NoError(t, s.Complete())
	waitClosed(t, s)
	assert.NoError(t, s.Err(), "terminal ack slower than the request timeout still counts")
}

func TestCallbacksOutlastDefaultHeaderCap(t *testing.T) {
	srv, hits := slowRouter(t, 3500*time.Millisecond)
	settings := testSettings()
	settings.RequestTimeout = 10 * time.Second
	settings.HandshakeTimeout = 10 * time.Second
	settings.TerminalAckTimeout = 10 * time.Second

	m, _ := newTestManager(t, settings, callback.NewTransport(callback.Codec{}))
	defer shutdown(t, m)

	req := openReq("slow-router")
	req.CallbackURL = srv.URL + "/callback/slow-router"
	s, err := m.StartSubscription(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.StateActive, s.State())
	assert.EqualValues(t, 1, hits.Load())
}

func TestHandshakeStillBoundedByHandshakeTimeout(t *testing.T) {
	srv, _ := slowRouter(t, 2*time.Second)
	settings := testSettings()
	settings.HandshakeTimeout = 200 * time.Millisecond

	m, _ := newTestManager(t, settings, callback.NewTransport(callback.Codec{}))
	defer shutdown(t, m)

	req := openReq("too-slow")
	req.CallbackURL = srv.URL + "/callback/too-slow"
	start := time.Now()
	_, err := m.StartSubscription(context.Background(), req)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

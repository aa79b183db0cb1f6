// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/subcallback/internal/domain/subscription/lifecycle"
	"github.com/ManuGH/subcallback/internal/domain/subscription/model"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, Base: time.Millisecond, Ceiling: 2 * time.Millisecond}
}

func TestEventQueue_DrainDeliversInOrderUntilTerminal(t *testing.T) {
	q := NewEventQueue()
	require.NoError(t, q.Enqueue(model.NewNext("q", 1, nil)))
	require.NoError(t, q.Enqueue(model.NewNext("q", 2, nil)))
	require.NoError(t, q.Enqueue(model.NewComplete("q", 3)))

	var sent, acked []uint64
	err := q.Drain(context.Background(), func(_ context.Context, msg model.Message) error {
		sent = append(sent, msg.Seq)
		return nil
	}, fastPolicy(3), func(msg model.Message) {
		acked = append(acked, msg.Seq)
	})

	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, sent)
	assert.Equal(t, []uint64{1, 2, 3}, acked)
	assert.Equal(t, 0, q.Len())
}

func TestEventQueue_MessageStaysQueuedUntilAcknowledged(t *testing.T) {
	q := NewEventQueue()
	require.NoError(t, q.Enqueue(model.NewNext("q", 1, nil)))
	require.NoError(t, q.Enqueue(model.NewComplete("q", 2)))

	attempts := 0
	err := q.Drain(context.Background(), func(_ context.Context, msg model.Message) error {
		if msg.Seq == 1 {
			attempts++
			assert.Equal(t, 2, q.Len(), "head must remain queued while in flight")
			if attempts < 2 {
				return &lifecycle.StatusError{Status: 503}
			}
		}
		return nil
	}, fastPolicy(3), func(model.Message) {})

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestEventQueue_TerminalGetsSingleAttempt(t *testing.T) {
	q := NewEventQueue()
	require.NoError(t, q.Enqueue(model.NewComplete("q", 1)))

	attempts := 0
	err := q.Drain(context.Background(), func(context.Context, model.Message) error {
		attempts++
		return &lifecycle.StatusError{Status: 500}
	}, fastPolicy(5), func(model.Message) {})

	require.Error(t, err)
	assert.True(t, isTerminalFailure(err))
	assert.Equal(t, 1, attempts)
}

func TestEventQueue_NonRetryableStopsImmediately(t *testing.T) {
	q := NewEventQueue()
	require.NoError(t, q.Enqueue(model.NewNext("q", 1, nil)))

	attempts := 0
	err := q.Drain(context.Background(), func(context.Context, model.Message) error {
		attempts++
		return &lifecycle.StatusError{Status: 404}
	}, fastPolicy(5), func(model.Message) {})

	assert.ErrorIs(t, err, lifecycle.ErrRouterGone)
	assert.Equal(t, 1, attempts)
}

func TestEventQueue_DrainStopsOnCancel(t *testing.T) {
	q := NewEventQueue()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- q.Drain(ctx, func(context.Context, model.Message) error { return nil }, fastPolicy(1), func(model.Message) {})
	}()

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("drain did not stop")
	}
}

func TestEventQueue_WakesOnEnqueue(t *testing.T) {
	q := NewEventQueue()
	done := make(chan error, 1)
	go func() {
		done <- q.Drain(context.Background(), func(context.Context, model.Message) error { return nil }, fastPolicy(1), func(model.Message) {})
	}()

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, q.Enqueue(model.NewComplete("q", 1)))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("drain did not wake")
	}
}

func TestEventQueue_EnqueueAfterCloseFails(t *testing.T) {
	q := NewEventQueue()
	require.NoError(t, q.Enqueue(model.NewNext("q", 1, nil)))
	q.Close()
	assert.Equal(t, 0, q.Len())
	assert.ErrorIs(t, q.Enqueue(model.NewNext("q", 2, nil)), lifecycle.ErrSessionClosed)
}

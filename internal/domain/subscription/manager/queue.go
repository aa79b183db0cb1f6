// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manager

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/ManuGH/subcallback/internal/domain/subscription/lifecycle"
	"github.com/ManuGH/subcallback/internal/domain/subscription/model"
	"github.com/ManuGH/subcallback/internal/metrics"
)

// SendFunc performs exactly one delivery attempt.
type SendFunc func(ctx context.Context, msg model.Message) error

// RetryPolicy bounds redelivery of a single message.
type RetryPolicy struct {
	MaxAttempts int
	Base        time.Duration
	Ceiling     time.Duration
	Jitter      float64
}

func (p RetryPolicy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Base
	b.MaxInterval = p.Ceiling
	b.Multiplier = 2
	b.RandomizationFactor = p.Jitter
	b.Reset()
	return b
}

func (p RetryPolicy) maxTries() uint {
	if p.MaxAttempts < 1 {
		return 1
	}
	return uint(p.MaxAttempts)
}

// EventQueue is the ordered outbox of one session. Producers append at the
// tail; Drain is the only consumer. A message leaves the queue only after it
// was delivered or abandoned.
type EventQueue struct {
	mu     sync.Mutex
	items  []model.Message
	closed bool
	ready  chan struct{}
}

// NewEventQueue returns an empty, open queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{ready: make(chan struct{}, 1)}
}

// Enqueue appends msg. It never blocks and fails only once the queue is closed.
func (q *EventQueue) Enqueue(msg model.Message) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return lifecycle.ErrSessionClosed
	}
	q.items = append(q.items, msg)
	n := len(q.items)
	q.mu.Unlock()

	metrics.ObserveQueueDepth(n)
	select {
	case q.ready <- struct{}{}:
	default:
	}
	return nil
}

// Len returns the number of undelivered messages.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Clear drops every undelivered message and returns how many were dropped.
func (q *EventQueue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	q.items = nil
	return n
}

// Close rejects further enqueues and discards pending messages.
func (q *EventQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.items = nil
	q.mu.Unlock()
}

func (q *EventQueue) head() (model.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return model.Message{}, false
	}
	return q.items[0], true
}

func (q *EventQueue) pop(seq uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) > 0 && q.items[0].Seq == seq {
		q.items[0] = model.Message{}
		q.items = q.items[1:]
	}
}

// Drain delivers queued messages in order until a terminal message has been
// attempted, ctx ends, or a data message is abandoned. Data messages are
// retried with exponential backoff up to policy.MaxAttempts; terminal
// messages get a single attempt. onDelivered runs after every acknowledged
// message. A nil return means the terminal message was acknowledged.
func (q *EventQueue) Drain(ctx context.Context, send SendFunc, policy RetryPolicy, onDelivered func(model.Message)) error {
	for {
		msg, ok := q.head()
		if !ok {
			select {
			case <-q.ready:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if msg.Kind.IsTerminal() {
			err := send(ctx, msg)
			q.pop(msg.Seq)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return &lifecycle.DeliveryError{Kind: msg.Kind, Seq: msg.Seq, Attempts: 1, LastStatus: lifecycle.StatusOf(err), Err: err}
			}
			onDelivered(msg)
			return nil
		}

		attempts := 0
		var lastErr error
		_, err := backoff.Retry(ctx, func() (struct{}, error) {
			attempts++
			err := send(ctx, msg)
			if err != nil {
				lastErr = err
				if !lifecycle.IsRetryable(err) {
					return struct{}{}, backoff.Permanent(err)
				}
			}
			return struct{}{}, err
		},
			backoff.WithBackOff(policy.backOff()),
			backoff.WithMaxTries(policy.maxTries()),
			backoff.WithNotify(func(error, time.Duration) { metrics.RecordRetry(string(msg.Kind)) }),
		)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if lastErr == nil {
				lastErr = err
			}
			q.pop(msg.Seq)
			cause := "exhausted"
			if !lifecycle.IsRetryable(lastErr) {
				cause = "fatal"
			}
			metrics.RecordAbandoned(string(msg.Kind), cause)
			return &lifecycle.DeliveryError{Kind: msg.Kind, Seq: msg.Seq, Attempts: attempts, LastStatus: lifecycle.StatusOf(lastErr), Err: lastErr}
		}
		q.pop(msg.Seq)
		onDelivered(msg)
	}
}

// isTerminalFailure reports whether err came from the single terminal attempt.
func isTerminalFailure(err error) bool {
	var de *lifecycle.DeliveryError
	return errors.As(err, &de) && de.Kind.IsTerminal()
}

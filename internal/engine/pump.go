// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ManuGH/subcallback/internal/domain/subscription/lifecycle"
	"github.com/ManuGH/subcallback/internal/domain/subscription/model"
)

// Sink receives a subscription's stream. manager.Manager implements it.
type Sink interface {
	OnNextEvent(id model.SubscriptionID, payload map[string]any) error
	OnStreamComplete(id model.SubscriptionID) error
	OnStreamError(id model.SubscriptionID, reason string) error
}

// Session is the open subscription a stream feeds. *manager.Session
// implements it.
type Session interface {
	ID() model.SubscriptionID
	Done() <-chan struct{}
	// Err is the close cause, nil while open or after a normal completion.
	Err() error
}

// Pump forwards stream into sink until the stream closes, yields errors, ctx
// is done or the session closes. A session closed by the protocol (router
// gone, liveness lost, delivery failed) is reported with its close cause.
func Pump(ctx context.Context, sink Sink, sess Session, stream <-chan Response) error {
	id := sess.ID()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sess.Done():
			return closeCause(sess)
		case resp, ok := <-stream:
			if !ok {
				if err := sink.OnStreamComplete(id); err != nil {
					return fmt.Errorf("complete %s: %w", id, err)
				}
				return nil
			}
			if len(resp.Errors) > 0 {
				if err := sink.OnStreamError(id, errorMessages(resp)); err != nil {
					return fmt.Errorf("fail %s: %w", id, err)
				}
				return nil
			}
			if err := sink.OnNextEvent(id, resp.Payload()); err != nil {
				if cause := closeCause(sess); cause != nil && isClosedError(err) {
					return cause
				}
				return fmt.Errorf("publish %s: %w", id, err)
			}
		}
	}
}

func closeCause(sess Session) error {
	select {
	case <-sess.Done():
	default:
		return nil
	}
	if err := sess.Err(); err != nil {
		return fmt.Errorf("session %s closed: %w", sess.ID(), err)
	}
	return nil
}

func isClosedError(err error) bool {
	return errors.Is(err, lifecycle.ErrSessionClosed) || errors.Is(err, lifecycle.ErrSessionNotFound)
}

func errorMessages(resp Response) string {
	msgs := make([]string, 0, len(resp.Errors))
	for _, e := range resp.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ports

import (
	"context"

	"github.com/ManuGH/subcallback/internal/domain/subscription/model"
)

// Target addresses one subscription's callback endpoint. It is fixed for the
// life of a session.
type Target struct {
	URL      string
	Verifier string
	// Headers are echoed verbatim onto every callback request.
	Headers map[string]string
}

// Transport delivers a single protocol message. Implementations are stateless
// and never retry; a non-nil error means no HTTP status was observed.
type Transport interface {
	Send(ctx context.Context, target Target, msg model.Message) (status int, err error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, target Target, msg model.Message) (int, error)

func (f TransportFunc) Send(ctx context.Context, target Target, msg model.Message) (int, error) {
	return f(ctx, target, msg)
}

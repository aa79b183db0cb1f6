// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package callback implements the router-facing side of the subscription
// callback protocol: message bodies, headers, extension parsing and the HTTP
// transport.
package callback

import (
	"encoding/json"
	"fmt"

	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/ManuGH/subcallback/internal/domain/subscription/lifecycle"
	"github.com/ManuGH/subcallback/internal/domain/subscription/model"
)

// Dialect selects the JSON body layout.
type Dialect string

const (
	// DialectSequenced carries the message kind directly plus an explicit seq.
	DialectSequenced Dialect = "sequenced"
	// DialectApollo uses kind "subscription" with an action field and encodes
	// errors as a complete carrying errors.
	DialectApollo Dialect = "apollo"
)

// ParseDialect maps a config value to a Dialect. Empty means sequenced.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(s) {
	case "", DialectSequenced:
		return DialectSequenced, nil
	case DialectApollo:
		return DialectApollo, nil
	default:
		return "", fmt.Errorf("unknown callback dialect %q", s)
	}
}

// Body is the JSON document posted to the callback URL.
type Body struct {
	Kind     string         `json:"kind"`
	Action   string         `json:"action,omitempty"`
	ID       string         `json:"id"`
	Verifier string         `json:"verifier"`
	Seq      *uint64        `json:"seq,omitempty"`
	Payload  map[string]any `json:"payload,omitempty"`
	Errors   gqlerror.List  `json:"errors,omitempty"`
}

// Codec encodes protocol messages for one dialect.
type Codec struct {
	Dialect Dialect
}

// Build maps msg onto the dialect's body layout.
func (c Codec) Build(msg model.Message, verifier string) Body {
	b := Body{
		ID:       string(msg.SubscriptionID),
		Verifier: verifier,
		Payload:  msg.Payload,
		Errors:   msg.Errors,
	}
	if c.Dialect == DialectApollo {
		b.Kind = "subscription"
		b.Action = msg.Kind.WireKind()
		if msg.Kind == model.KindError {
			b.Action = string(model.KindComplete)
		}
		return b
	}
	seq := msg.Seq
	b.Kind = msg.Kind.WireKind()
	b.Seq = &seq
	return b
}

// Encode renders msg as JSON. Failures wrap lifecycle.ErrEncodingFailed.
func (c Codec) Encode(msg model.Message, verifier string) ([]byte, error) {
	data, err := json.Marshal(c.Build(msg, verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: %s seq=%d: %w", lifecycle.ErrEncodingFailed, msg.Kind, msg.Seq, err)
	}
	return data, nil
}

// Decode parses a body. It is used by router-side fakes and diagnostics.
func Decode(data []byte) (Body, error) {
	var b Body
	if err := json.Unmarshal(data, &b); err != nil {
		return Body{}, fmt.Errorf("decode callback body: %w", err)
	}
	return b, nil
}

// WireKind returns the message kind a body represents independent of dialect.
func (b Body) WireKind() string {
	if b.Kind == "subscription" {
		if b.Action == string(model.KindComplete) && len(b.Errors) > 0 {
			return string(model.KindError)
		}
		return b.Action
	}
	return b.Kind
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

import "github.com/vektah/gqlparser/v2/gqlerror"

// MessageKind tags the protocol message variant.
type MessageKind string

const (
	KindHandshake MessageKind = "handshake"
	KindHeartbeat MessageKind = "heartbeat"
	KindNext      MessageKind = "next"
	KindComplete  MessageKind = "complete"
	KindError     MessageKind = "error"
)

// WireKind is the value carried in the body and the kind header. Handshake and
// heartbeat are both "check" messages on the wire.
func (k MessageKind) WireKind() string {
	switch k {
	case KindHandshake, KindHeartbeat:
		return "check"
	default:
		return string(k)
	}
}

// IsTerminal reports whether delivering the message ends the subscription.
func (k MessageKind) IsTerminal() bool {
	return k == KindComplete || k == KindError
}

// IsProbe reports whether the message is a liveness check.
func (k MessageKind) IsProbe() bool {
	return k == KindHandshake || k == KindHeartbeat
}

// Message is one protocol message addressed to the router's callback URL.
// Seq is 0 for the handshake; data and terminal messages carry a strictly
// increasing sequence; heartbeats echo the last assigned sequence.
type Message struct {
	Kind           MessageKind
	SubscriptionID SubscriptionID
	Seq            uint64
	Payload        map[string]any
	Errors         gqlerror.List
}

// NewHandshake builds the initial check message.
func NewHandshake(id SubscriptionID) Message {
	return Message{Kind: KindHandshake, SubscriptionID: id}
}

// NewHeartbeat builds a liveness check that does not consume a sequence number.
func NewHeartbeat(id SubscriptionID, lastSeq uint64) Message {
	return Message{Kind: KindHeartbeat, SubscriptionID: id, Seq: lastSeq}
}

// NewNext builds a data message.
func NewNext(id SubscriptionID, seq uint64, payload map[string]any) Message {
	return Message{Kind: KindNext, SubscriptionID: id, Seq: seq, Payload: payload}
}

// NewComplete builds the normal-termination message.
func NewComplete(id SubscriptionID, seq uint64) Message {
	return Message{Kind: KindComplete, SubscriptionID: id, Seq: seq}
}

// NewError builds the abnormal-termination message carrying one GraphQL error per reason.
func NewError(id SubscriptionID, seq uint64, reasons ...string) Message {
	errs := make(gqlerror.List, 0, len(reasons))
	for _, r := range reasons {
		errs = append(errs, gqlerror.Errorf("%s", r))
	}
	return Message{Kind: KindError, SubscriptionID: id, Seq: seq, Errors: errs}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"fmt"

	"github.com/ManuGH/subcallback/internal/domain/subscription/model"
)

// Transition is a single allowed edge in the lifecycle state machine.
type Transition struct {
	From   model.SessionState
	To     model.SessionState
	Event  EventKind
	Reason model.ReasonCode
}

// Decision records whether a transition is allowed and why it is forbidden.
type Decision struct {
	Allowed bool
	Reason  string
}

var transitionsTable = []Transition{
	// Handshake
	{From: model.StatePending, To: model.StateActive, Event: EvHandshakeAcked},
	{From: model.StatePending, To: model.StateClosed, Event: EvHandshakeFailed, Reason: model.RHandshakeFailed},
	{From: model.StatePending, To: model.StateClosed, Event: EvTerminate, Reason: model.RTerminated},
	{From: model.StatePending, To: model.StateClosed, Event: EvShutdown, Reason: model.RShutdown},

	// Streaming
	{From: model.StateActive, To: model.StateActive, Event: EvDelivered},
	{From: model.StateActive, To: model.StateTerminating, Event: EvStreamCompleted, Reason: model.RCompleted},
	{From: model.StateActive, To: model.StateTerminating, Event: EvStreamFailed, Reason: model.RStreamError},
	{From: model.StateActive, To: model.StateTerminating, Event: EvEncodingFailed, Reason: model.REncodingFailed},
	{From: model.StateActive, To: model.StateClosed, Event: EvDeliveryExhausted, Reason: model.RDeliveryFailed},
	{From: model.StateActive, To: model.StateClosed, Event: EvLivenessLost, Reason: model.RLivenessLost},
	{From: model.StateActive, To: model.StateClosed, Event: EvRouterGone, Reason: model.RRouterGone},
	{From: model.StateActive, To: model.StateClosed, Event: EvTerminate, Reason: model.RTerminated},
	{From: model.StateActive, To: model.StateClosed, Event: EvShutdown, Reason: model.RShutdown},

	// Draining toward the terminal message
	{From: model.StateTerminating, To: model.StateTerminating, Event: EvDelivered},
	{From: model.StateTerminating, To: model.StateClosed, Event: EvTerminalAcked},
	{From: model.StateTerminating, To: model.StateClosed, Event: EvTerminalTimeout},
	{From: model.StateTerminating, To: model.StateClosed, Event: EvDeliveryExhausted, Reason: model.RDeliveryFailed},
	{From: model.StateTerminating, To: model.StateClosed, Event: EvLivenessLost, Reason: model.RLivenessLost},
	{From: model.StateTerminating, To: model.StateClosed, Event: EvRouterGone, Reason: model.RRouterGone},
	{From: model.StateTerminating, To: model.StateClosed, Event: EvTerminate, Reason: model.RTerminated},
	{From: model.StateTerminating, To: model.StateClosed, Event: EvShutdown, Reason: model.RShutdown},
}

// TransitionFor returns the allowed transition for a given state+event.
func TransitionFor(from model.SessionState, ev EventKind) (Transition, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.Event == ev {
			return tr, true
		}
	}
	return Transition{}, false
}

// DecisionFor reports whether ev is legal in state from. Every state/event
// pair yields a decision; ok is false only for unknown states.
func DecisionFor(from model.SessionState, ev EventKind) (Decision, bool) {
	switch from {
	case model.StatePending, model.StateActive, model.StateTerminating, model.StateClosed:
	default:
		return Decision{}, false
	}
	if _, ok := TransitionFor(from, ev); ok {
		return Decision{Allowed: true}, true
	}
	if from.IsTerminal() {
		return Decision{Reason: "session closed"}, true
	}
	return Decision{Reason: fmt.Sprintf("%s not permitted in %s", ev, from)}, true
}

// Apply resolves the transition for ev, keeping an explicit reason on the event
// over the table default. Terminal-ack edges inherit the current reason.
func Apply(from model.SessionState, current model.ReasonCode, ev Event) (model.SessionState, model.ReasonCode, error) {
	tr, ok := TransitionFor(from, ev.Kind)
	if !ok {
		if from.IsTerminal() {
			return from, current, ErrSessionClosed
		}
		return from, current, fmt.Errorf("%w: %s in %s", ErrIllegalTransition, ev.Kind, from)
	}
	reason := tr.Reason
	if ev.Reason != model.RNone {
		reason = ev.Reason
	}
	if reason == model.RNone {
		reason = current
	}
	return tr.To, reason, nil
}

// Event carries optional domain metadata for a transition.
type Event struct {
	Kind   EventKind
	Reason model.ReasonCode
}

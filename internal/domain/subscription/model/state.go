// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

// SessionState is the protocol lifecycle of one callback subscription.
type SessionState string

const (
	// StatePending: handshake sent, awaiting router acknowledgment.
	StatePending SessionState = "pending"
	// StateActive: events may flow.
	StateActive SessionState = "active"
	// StateTerminating: complete or error queued, awaiting final ack or timeout.
	StateTerminating SessionState = "terminating"
	// StateClosed is absorbing.
	StateClosed SessionState = "closed"
)

// IsTerminal returns true if the state is a final state.
func (s SessionState) IsTerminal() bool {
	return s == StateClosed
}

// AcceptsEvents reports whether new data messages may be published.
func (s SessionState) AcceptsEvents() bool {
	return s == StateActive
}

func (s SessionState) String() string { return string(s) }

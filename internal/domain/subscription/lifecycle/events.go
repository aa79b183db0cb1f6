// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import "fmt"

// EventKind is a domain event in the subscription lifecycle.
type EventKind int

const (
	EvUnknown EventKind = iota
	EvHandshakeAcked
	EvHandshakeFailed
	EvDelivered
	EvStreamCompleted
	EvStreamFailed
	EvEncodingFailed
	EvDeliveryExhausted
	EvLivenessLost
	EvRouterGone
	EvTerminalAcked
	EvTerminalTimeout
	EvTerminate
	EvShutdown
)

var eventNames = map[EventKind]string{
	EvUnknown:           "unknown",
	EvHandshakeAcked:    "handshake_acked",
	EvHandshakeFailed:   "handshake_failed",
	EvDelivered:         "delivered",
	EvStreamCompleted:   "stream_completed",
	EvStreamFailed:      "stream_failed",
	EvEncodingFailed:    "encoding_failed",
	EvDeliveryExhausted: "delivery_exhausted",
	EvLivenessLost:      "liveness_lost",
	EvRouterGone:        "router_gone",
	EvTerminalAcked:     "terminal_acked",
	EvTerminalTimeout:   "terminal_timeout",
	EvTerminate:         "terminate",
	EvShutdown:          "shutdown",
}

func (e EventKind) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// AllEvents lists every known event except EvUnknown.
func AllEvents() []EventKind {
	return []EventKind{
		EvHandshakeAcked,
		EvHandshakeFailed,
		EvDelivered,
		EvStreamCompleted,
		EvStreamFailed,
		EvEncodingFailed,
		EvDeliveryExhausted,
		EvLivenessLost,
		EvRouterGone,
		EvTerminalAcked,
		EvTerminalTimeout,
		EvTerminate,
		EvShutdown,
	}
}

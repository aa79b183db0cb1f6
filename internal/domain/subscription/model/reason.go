// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

// ReasonCode records why a session reached its current state.
type ReasonCode string

const (
	RNone            ReasonCode = ""
	RCompleted       ReasonCode = "completed"
	RStreamError     ReasonCode = "stream_error"
	RHandshakeFailed ReasonCode = "handshake_failed"
	RDeliveryFailed  ReasonCode = "delivery_failed"
	REncodingFailed  ReasonCode = "encoding_failed"
	RLivenessLost    ReasonCode = "liveness_lost"
	RRouterGone      ReasonCode = "router_gone"
	RTerminated      ReasonCode = "terminated"
	RShutdown        ReasonCode = "shutdown"
	ROrphaned        ReasonCode = "orphaned"
)

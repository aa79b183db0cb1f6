// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSubscriptionID = "subscription_id"
	FieldCorrelationID  = "correlation_id"
	FieldRequestID      = "request_id"
	FieldOwner          = "owner"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Protocol fields
	FieldKind     = "kind"
	FieldSeq      = "seq"
	FieldAttempt  = "attempt"
	FieldStatus   = "status"
	FieldReason   = "reason"
	FieldDialect  = "dialect"
	FieldFailures = "failures"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Network fields
	FieldCallbackHost = "callback_host"
	FieldPath         = "path"
	FieldMethod       = "method"
)

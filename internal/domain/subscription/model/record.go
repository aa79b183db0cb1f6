// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

import "time"

// Record is the persisted, operator-facing view of one session. It is written
// on every state change and removed once the session closes.
type Record struct {
	SubscriptionID      string       `json:"subscription_id"`
	CallbackURL         string       `json:"callback_url"`
	State               SessionState `json:"state"`
	Reason              ReasonCode   `json:"reason,omitempty"`
	LastSeq             uint64       `json:"last_seq"`
	AckedSeq            uint64       `json:"acked_seq"`
	Pending             int          `json:"pending"`
	HeartbeatIntervalMs int64        `json:"heartbeat_interval_ms"`
	HeartbeatFailures   int          `json:"heartbeat_failures"`
	Owner               string       `json:"owner"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// Clone returns a copy safe to hand across goroutines.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ports

import "github.com/ManuGH/subcallback/internal/domain/subscription/model"

// Notifier is told exactly once per session that it has closed. err is nil for
// a normal completion.
type Notifier interface {
	SessionClosed(id model.SubscriptionID, reason model.ReasonCode, err error)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(id model.SubscriptionID, reason model.ReasonCode, err error)

func (f NotifierFunc) SessionClosed(id model.SubscriptionID, reason model.ReasonCode, err error) {
	f(id, reason, err)
}

// NopNotifier discards close signals.
type NopNotifier struct{}

func (NopNotifier) SessionClosed(model.SubscriptionID, model.ReasonCode, error) {}

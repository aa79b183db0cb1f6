// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"errors"

	"github.com/ManuGH/subcallback/internal/domain/subscription/model"
)

var (
	ErrHandshakeFailed       = errors.New("handshake failed")
	ErrDeliveryFailed        = errors.New("delivery failed")
	ErrLivenessLost          = errors.New("liveness lost")
	ErrDuplicateSubscription = errors.New("duplicate subscription")
	ErrSessionClosed         = errors.New("session closed")
	ErrSessionNotFound       = errors.New("session not found")
	ErrAdmissionRejected     = errors.New("admission rejected")
	ErrRouterGone            = errors.New("router gone")
	ErrTerminated            = errors.New("subscription terminated")
	ErrShutdown              = errors.New("manager shutting down")
	ErrStreamFailed          = errors.New("source stream failed")
	ErrEncodingFailed        = errors.New("payload encoding failed")
	ErrIllegalTransition     = errors.New("illegal transition")
)

// ReasonErrorClass maps a close reason to the sentinel reported by Session.Err.
// Normal completion maps to nil.
func ReasonErrorClass(reason model.ReasonCode) error {
	switch reason {
	case model.RNone, model.RCompleted:
		return nil
	case model.RHandshakeFailed:
		return ErrHandshakeFailed
	case model.RDeliveryFailed:
		return ErrDeliveryFailed
	case model.RLivenessLost:
		return ErrLivenessLost
	case model.RRouterGone:
		return ErrRouterGone
	case model.RTerminated, model.ROrphaned:
		return ErrTerminated
	case model.RShutdown:
		return ErrShutdown
	case model.RStreamError:
		return ErrStreamFailed
	case model.REncodingFailed:
		return ErrEncodingFailed
	default:
		return ErrDeliveryFailed
	}
}

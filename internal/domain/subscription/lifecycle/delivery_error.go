// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"errors"
	"fmt"

	"github.com/ManuGH/subcallback/internal/domain/subscription/model"
)

// DeliveryError describes a message the queue gave up on.
type DeliveryError struct {
	Kind       model.MessageKind
	Seq        uint64
	Attempts   int
	LastStatus int
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.LastStatus > 0 {
		return fmt.Sprintf("deliver %s seq=%d: %d attempts, last status %d: %v", e.Kind, e.Seq, e.Attempts, e.LastStatus, e.Err)
	}
	return fmt.Sprintf("deliver %s seq=%d: %d attempts: %v", e.Kind, e.Seq, e.Attempts, e.Err)
}

// Unwrap exposes both the cause and the ErrDeliveryFailed class.
func (e *DeliveryError) Unwrap() []error {
	return []error{ErrDeliveryFailed, e.Err}
}

// StatusError is a non-2xx callback response.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("callback responded %d", e.Status)
}

// Is lets a 404 match ErrRouterGone.
func (e *StatusError) Is(target error) bool {
	return target == ErrRouterGone && e.Status == 404
}

// StatusOf extracts the last observed HTTP status from err, or 0.
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.LastStatus
	}
	return 0
}

// IsRetryable reports whether a failed send may be attempted again.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrRouterGone) && !errors.Is(err, ErrEncodingFailed)
}

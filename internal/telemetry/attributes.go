// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for consistent tracing across the application.
const (
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"

	SubscriptionIDKey  = "subscription.id"
	CallbackKindKey    = "callback.kind"
	CallbackSeqKey     = "callback.seq"
	CallbackHostKey    = "callback.host"
	CallbackDialectKey = "callback.dialect"

	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// CallbackAttributes describes one callback message.
func CallbackAttributes(subscriptionID, kind string, seq uint64, host string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(SubscriptionIDKey, subscriptionID),
		attribute.String(CallbackKindKey, kind),
		attribute.Int64(CallbackSeqKey, int64(seq)),
	}
	if host != "" {
		attrs = append(attrs, attribute.String(CallbackHostKey, host))
	}
	return attrs
}

// RecordError marks span as failed with err.
func RecordError(span trace.Span, err error, errType string) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if errType != "" {
		span.SetAttributes(attribute.String(ErrorTypeKey, errType))
	}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package callback

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/subcallback/internal/domain/subscription/model"
	"github.com/ManuGH/subcallback/internal/domain/subscription/ports"
	"github.com/ManuGH/subcallback/internal/log"
	"github.com/ManuGH/subcallback/internal/platform/httpx"
	"github.com/ManuGH/subcallback/internal/resilience"
	"github.com/ManuGH/subcallback/internal/telemetry"
)

// maxDrainBytes bounds how much of a response body is read before closing.
const maxDrainBytes = 4 << 10

// Transport posts protocol messages over HTTP. It never retries.
type Transport struct {
	client   *http.Client
	codec    Codec
	breakers *resilience.HostBreakers
	tracer   trace.Tracer
	logger   zerolog.Logger
}

var _ ports.Transport = (*Transport)(nil)

// Option configures a Transport.
type Option func(*Transport)

// WithHTTPClient replaces the traced default client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transport) { t.client = c }
}

// WithBreakers routes every send through per-host circuit breakers.
func WithBreakers(b *resilience.HostBreakers) Option {
	return func(t *Transport) { t.breakers = b }
}

// NewTransport builds an HTTP transport. Requests are bounded by the
// caller's context deadline only.
func NewTransport(codec Codec, opts ...Option) *Transport {
	t := &Transport{
		client: httpx.NewCallbackClient(),
		codec:  codec,
		tracer: telemetry.Tracer("subcallback/callback"),
		logger: log.WithComponent("callback"),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Send encodes msg and posts it to target. A response of any status returns
// that status with a nil error; err is set only when no status was observed.
func (t *Transport) Send(ctx context.Context, target ports.Target, msg model.Message) (int, error) {
	host := hostOf(target.URL)
	ctx, span := t.tracer.Start(ctx, "callback.send",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(telemetry.CallbackAttributes(string(msg.SubscriptionID), msg.Kind.WireKind(), msg.Seq, host)...),
		trace.WithAttributes(attribute.String(telemetry.CallbackDialectKey, string(t.codec.Dialect))),
	)
	defer span.End()

	body, err := t.codec.Encode(msg, target.Verifier)
	if err != nil {
		telemetry.RecordError(span, err, "encoding")
		return 0, err
	}

	var status int
	post := func() error {
		var perr error
		status, perr = t.post(ctx, target, msg, body)
		if perr != nil {
			return perr
		}
		if status >= http.StatusInternalServerError {
			return fmt.Errorf("callback returned %d", status)
		}
		return nil
	}

	err = t.breakers.Execute(host, post, nil)
	if status != 0 {
		span.SetAttributes(attribute.Int(telemetry.HTTPStatusCodeKey, status))
		if status >= http.StatusBadRequest {
			telemetry.RecordError(span, fmt.Errorf("callback returned %d", status), "status")
		}
		return status, nil
	}
	if err != nil {
		telemetry.RecordError(span, err, "transport")
		t.logger.Debug().Err(err).
			Str(log.FieldEvent, "callback.transport_error").
			Str(log.FieldSubscriptionID, string(msg.SubscriptionID)).
			Str(log.FieldCallbackHost, host).
			Msg("callback request failed")
		return 0, err
	}
	return status, nil
}

func (t *Transport) post(ctx context.Context, target ports.Target, msg model.Message, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build callback request: %w", err)
	}
	SetHeaders(req.Header, msg, target.Headers)

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("post %s: %w", msg.Kind.WireKind(), err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	return resp.StatusCode, nil
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package httpx builds the outbound HTTP clients used for callback delivery.
package httpx

import (
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultClientTimeout         = 5 * time.Second
	defaultDialTimeout           = 3 * time.Second
	defaultResponseHeaderTimeout = 3 * time.Second
	defaultIdleConnTimeout       = 30 * time.Second
	defaultExpectContinueTimeout = 1 * time.Second
	defaultMaxIdleConns          = 64
	defaultMaxIdleConnsPerHost   = 8
)

// NewTransport returns a pooled transport with dial and header timeouts capped
// to the request timeout.
func NewTransport(timeout time.Duration) *http.Transport {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	dialTimeout := min(timeout, defaultDialTimeout)
	responseHeaderTimeout := min(timeout, defaultResponseHeaderTimeout)

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          defaultMaxIdleConns,
		MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   dialTimeout,
		ResponseHeaderTimeout: responseHeaderTimeout,
		ExpectContinueTimeout: defaultExpectContinueTimeout,
	}
}

// NewClient returns a hardened HTTP client.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: NewTransport(timeout),
	}
}

// NewCallbackClient returns a traced client without an overall or
// response-header timeout. Each request is bounded only by its context
// deadline, so callers pick the limit per message. Dial and TLS handshake
// remain capped.
func NewCallbackClient() *http.Client {
	tr := NewTransport(defaultDialTimeout)
	tr.ResponseHeaderTimeout = 0
	return &http.Client{
		Transport: otelhttp.NewTransport(tr,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return "callback " + r.Method
			}),
		),
	}
}

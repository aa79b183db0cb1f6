// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/ManuGH/subcallback/internal/callback"
	"github.com/ManuGH/subcallback/internal/domain/subscription/lifecycle"
	"github.com/ManuGH/subcallback/internal/domain/subscription/manager"
	"github.com/ManuGH/subcallback/internal/engine"
	"github.com/ManuGH/subcallback/internal/log"
	pnet "github.com/ManuGH/subcallback/internal/platform/net"
)

// Error codes reported in errors[].extensions.code.
const (
	codeBadRequest         = "BAD_REQUEST"
	codeInvalidExtension   = "INVALID_CALLBACK_EXTENSION"
	codeCallbackForbidden  = "CALLBACK_URL_NOT_ALLOWED"
	codeHandshakeFailed    = "CALLBACK_HANDSHAKE_FAILED"
	codeDuplicate          = "DUPLICATE_SUBSCRIPTION"
	codeAdmissionRejected  = "SUBSCRIPTION_RATE_LIMITED"
	codeShuttingDown       = "SHUTTING_DOWN"
	codeExecutionFailed    = "EXECUTION_FAILED"
	codeSubscriptionFailed = "SUBSCRIPTION_FAILED"
)

type graphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	var req graphQLRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeGraphQLError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeGraphQLError(w, http.StatusBadRequest, codeBadRequest, "query is required")
		return
	}

	op, err := engine.OperationType(req.Query, req.OperationName)
	if err != nil {
		writeGraphQLError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	ereq := engine.Request{
		Query:         req.Query,
		OperationName: req.OperationName,
		Variables:     req.Variables,
		Extensions:    req.Extensions,
	}
	if op != ast.Subscription {
		s.execute(w, r, ereq)
		return
	}
	s.subscribe(w, r, ereq)
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request, req engine.Request) {
	resp, err := s.deps.Executor.Execute(r.Context(), req)
	if err != nil {
		writeGraphQLError(w, http.StatusBadRequest, codeExecutionFailed, err.Error())
		return
	}
	out := graphQLResponse{Errors: resp.Errors}
	if resp.Data != nil {
		out.Data = resp.Data
	}
	writeJSON(w, http.StatusOK, out)
}

// subscribe registers the router's callback, starts the source stream and
// performs the handshake. The stream runs detached from the request once the
// handshake succeeds.
func (s *Server) subscribe(w http.ResponseWriter, r *http.Request, req engine.Request) {
	ext, err := callback.ParseExtension(req.Extensions)
	if err != nil {
		writeGraphQLError(w, http.StatusBadRequest, codeInvalidExtension, err.Error())
		return
	}

	logger := log.WithContext(
		log.ContextWithSubscriptionID(r.Context(), string(ext.SubscriptionID)),
		s.logger,
	)
	if err := s.cfg.CallbackPolicy.Check(r.Context(), ext.CallbackURL); err != nil {
		logger.Warn().Err(err).
			Str(log.FieldEvent, "subscription.callback_refused").
			Str("callback_url", pnet.SanitizeURL(ext.CallbackURL)).
			Msg("callback url refused by policy")
		writeGraphQLError(w, http.StatusBadRequest, codeCallbackForbidden, err.Error())
		return
	}

	sctx, cancelCause := context.WithCancelCause(s.baseCtx)
	cancel := func() { cancelCause(nil) }
	stream, err := s.deps.Executor.Subscribe(sctx, req)
	if err != nil {
		cancel()
		writeGraphQLError(w, http.StatusBadRequest, codeExecutionFailed, err.Error())
		return
	}

	sess, err := s.deps.Manager.StartSubscription(r.Context(), manager.OpenRequest{
		SubscriptionID:    ext.SubscriptionID,
		CallbackURL:       ext.CallbackURL,
		Verifier:          ext.Verifier,
		HeartbeatInterval: ext.HeartbeatInterval,
		ContextHeaders:    callback.SelectContextHeaders(r.Header, s.cfg.ContextHeaders),
	})
	if err != nil {
		cancel()
		status, code := subscriptionFailure(err)
		logger.Warn().Err(err).
			Str(log.FieldEvent, "subscription.rejected").
			Int(log.FieldStatus, status).
			Msg("subscription not started")
		writeGraphQLError(w, status, code, err.Error())
		return
	}

	s.pumps.Add(1)
	go func() {
		defer s.pumps.Done()
		err := engine.Pump(sctx, s.deps.Manager, sess, stream)
		// The executor sees why its stream was cut via context.Cause.
		cancelCause(err)
		switch {
		case err == nil || benignPumpError(err):
		case sessionLost(err):
			logger.Warn().Err(err).
				Str(log.FieldEvent, "subscription.stream_cancelled").
				Msg("session closed before the stream ended")
		default:
			logger.Warn().Err(err).
				Str(log.FieldEvent, "subscription.pump_failed").
				Msg("stream pump stopped")
		}
	}()

	w.Header().Set(callback.HeaderProtocol, callback.ProtocolVersion)
	writeJSON(w, http.StatusOK, graphQLResponse{})
}

func subscriptionFailure(err error) (int, string) {
	switch {
	case errors.Is(err, lifecycle.ErrAdmissionRejected):
		return http.StatusTooManyRequests, codeAdmissionRejected
	case errors.Is(err, lifecycle.ErrShutdown):
		return http.StatusServiceUnavailable, codeShuttingDown
	case errors.Is(err, lifecycle.ErrDuplicateSubscription):
		return http.StatusBadRequest, codeDuplicate
	case errors.Is(err, lifecycle.ErrHandshakeFailed), errors.Is(err, lifecycle.ErrRouterGone):
		return http.StatusBadRequest, codeHandshakeFailed
	case errors.Is(err, manager.ErrInvalidRequest):
		return http.StatusBadRequest, codeInvalidExtension
	default:
		return http.StatusBadRequest, codeSubscriptionFailed
	}
}

// benignPumpError reports errors caused by an operator, server shutdown or a
// session that closed without a fault.
func benignPumpError(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, lifecycle.ErrTerminated) ||
		errors.Is(err, lifecycle.ErrShutdown) ||
		errors.Is(err, lifecycle.ErrSessionNotFound) ||
		errors.Is(err, lifecycle.ErrSessionClosed)
}

// sessionLost reports a session the protocol closed while its stream was live.
func sessionLost(err error) bool {
	return errors.Is(err, lifecycle.ErrRouterGone) ||
		errors.Is(err, lifecycle.ErrLivenessLost) ||
		errors.Is(err, lifecycle.ErrDeliveryFailed) ||
		errors.Is(err, lifecycle.ErrEncodingFailed)
}

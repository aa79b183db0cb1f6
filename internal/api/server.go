// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package api provides the HTTP surface of the subscription service: the
// GraphQL entry point, the admin API and health probes.
package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/subcallback/internal/api/middleware"
	"github.com/ManuGH/subcallback/internal/domain/subscription/manager"
	"github.com/ManuGH/subcallback/internal/engine"
	"github.com/ManuGH/subcallback/internal/health"
	"github.com/ManuGH/subcallback/internal/log"
	pnet "github.com/ManuGH/subcallback/internal/platform/net"
)

const (
	defaultMaxBodyBytes = 1 << 20
	readyTimeout        = 2 * time.Second
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Reloader re-reads configuration on demand. Implemented by config.ConfigHolder.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Config holds the HTTP-facing options.
type Config struct {
	// ContextHeaders lists inbound headers echoed onto every callback.
	ContextHeaders []string
	// RateLimitRPM caps /graphql requests per client IP. 0 disables.
	RateLimitRPM int
	// JWTSecret enables bearer auth on /admin when set.
	JWTSecret string
	// TracingService names the tracer; empty disables request tracing.
	TracingService string
	MaxBodyBytes   int64
	// Version is reported by the health probes.
	Version string
	// CallbackPolicy vets router-supplied callback URLs. nil allows any.
	CallbackPolicy *pnet.CallbackPolicy
}

// Deps are the collaborators the server dispatches to.
type Deps struct {
	Manager  *manager.Manager
	Executor engine.Executor
	Store    Pinger
	Reloader Reloader
}

// Server routes HTTP requests and owns the goroutines that pump subscription
// streams into the manager.
type Server struct {
	cfg    Config
	deps   Deps
	auth   *middleware.JWTAuth
	health *health.Manager
	logger zerolog.Logger
	router chi.Router

	baseCtx context.Context
	cancel  context.CancelFunc
	pumps   sync.WaitGroup
}

// New wires the router. Manager and Executor are required.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Manager == nil {
		return nil, errors.New("api: manager is required")
	}
	if deps.Executor == nil {
		return nil, errors.New("api: executor is required")
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:     cfg,
		deps:    deps,
		auth:    middleware.NewJWTAuth(cfg.JWTSecret),
		logger:  log.WithComponent("api"),
		baseCtx: ctx,
		cancel:  cancel,
	}
	s.health = health.NewManager(cfg.Version, readyTimeout)
	if deps.Store != nil {
		s.health.RegisterChecker(health.NewPingChecker("store", deps.Store.Ping))
	}
	s.health.SetDetails(func() map[string]any {
		return map[string]any{"sessions": deps.Manager.Len()}
	})
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		TracingService:        s.cfg.TracingService,
		EnableLogging:         true,
	})

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())

	r.With(middleware.PerMinute(s.cfg.RateLimitRPM)).Post("/graphql", s.handleGraphQL)

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.AdminRequired(s.auth))
		r.Get("/subscriptions", s.handleListSubscriptions)
		r.Get("/subscriptions/{id}", s.handleGetSubscription)
		r.Delete("/subscriptions/{id}", s.handleTerminateSubscription)
		r.Post("/config/reload", s.handleConfigReload)
	})
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// AdminAuth returns the admin token issuer, nil when admin auth is disabled.
func (s *Server) AdminAuth() *middleware.JWTAuth { return s.auth }

// Close cancels every running stream pump and waits for them to return.
func (s *Server) Close(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.pumps.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package daemon owns the process lifecycle: the HTTP listener, config reload
// wiring and ordered graceful shutdown.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/subcallback/internal/config"
	"github.com/ManuGH/subcallback/internal/log"
)

// ShutdownHook is a function that performs cleanup during graceful shutdown.
// Hooks are executed in reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

// Manager manages the listener lifecycle: starting the server, handling shutdown.
type Manager interface {
	// Start serves until ctx is cancelled or the listener fails.
	Start(ctx context.Context) error

	// Shutdown stops the listener and runs the shutdown hooks.
	Shutdown(ctx context.Context) error

	// RegisterShutdownHook registers a function to be called during shutdown.
	RegisterShutdownHook(name string, hook ShutdownHook)

	// Addr returns the bound listen address once started.
	Addr() string
}

type namedHook struct {
	name string
	hook ShutdownHook
}

type manager struct {
	serverCfg config.ServerConfig
	handler   http.Handler
	logger    zerolog.Logger

	mu            sync.Mutex
	server        *http.Server
	addr          string
	started       bool
	stopping      bool
	shutdownHooks []namedHook
}

// NewManager creates a listener manager serving handler.
func NewManager(serverCfg config.ServerConfig, handler http.Handler) (Manager, error) {
	if handler == nil {
		return nil, ErrMissingHandler
	}
	return &manager{
		serverCfg: serverCfg,
		handler:   handler,
		logger:    log.WithComponent("daemon"),
	}, nil
}

func (m *manager) Addr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addr
}

// Start binds the listener and blocks until ctx is cancelled or serving fails.
// Either way the shutdown sequence runs before it returns.
func (m *manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return fmt.Errorf("manager already started")
	}
	m.started = true
	m.mu.Unlock()

	ln, err := net.Listen("tcp", m.serverCfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", m.serverCfg.Listen, err)
	}

	srv := &http.Server{
		Handler:           m.handler,
		ReadTimeout:       m.serverCfg.ReadTimeout,
		ReadHeaderTimeout: m.serverCfg.ReadTimeout / 2,
		WriteTimeout:      m.serverCfg.WriteTimeout,
	}
	m.mu.Lock()
	m.server = srv
	m.addr = ln.Addr().String()
	m.mu.Unlock()

	m.logger.Info().
		Str(log.FieldEvent, "server.listening").
		Str("addr", ln.Addr().String()).
		Dur("read_timeout", m.serverCfg.ReadTimeout).
		Dur("write_timeout", m.serverCfg.WriteTimeout).
		Msg("API server listening")

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("API server: %w", err)
		}
	}()

	// Detached but bounded so shutdown completes after ctx is cancelled.
	shutdownCtx := func() (context.Context, context.CancelFunc) {
		return context.WithTimeout(context.WithoutCancel(ctx), m.serverCfg.ShutdownTimeout+time.Second)
	}

	select {
	case err := <-errChan:
		m.logger.Error().Err(err).Str(log.FieldEvent, "server.failed").Msg("server error, initiating shutdown")
		sctx, cancel := shutdownCtx()
		defer cancel()
		if shutdownErr := m.Shutdown(sctx); shutdownErr != nil {
			return fmt.Errorf("server error and shutdown failure: %w", errors.Join(err, shutdownErr))
		}
		return err
	case <-ctx.Done():
		m.logger.Info().Str(log.FieldEvent, "server.stopping").Msg("shutdown signal received")
		sctx, cancel := shutdownCtx()
		defer cancel()
		return m.Shutdown(sctx)
	}
}

func (m *manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		return nil
	}
	if !m.started {
		m.mu.Unlock()
		return ErrManagerNotStarted
	}
	m.stopping = true
	srv := m.server
	hooks := append([]namedHook(nil), m.shutdownHooks...)
	m.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.serverCfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("API server shutdown: %w", err))
		}
	}

	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		start := time.Now()
		if err := h.hook(shutdownCtx); err != nil {
			m.logger.Error().Err(err).
				Str("hook", h.name).
				Dur("duration", time.Since(start)).
				Msg("shutdown hook failed")
			errs = append(errs, fmt.Errorf("hook %s: %w", h.name, err))
			continue
		}
		m.logger.Debug().Str("hook", h.name).Dur("duration", time.Since(start)).Msg("shutdown hook completed")
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	m.logger.Info().Str(log.FieldEvent, "server.stopped").Msg("daemon stopped cleanly")
	return nil
}

func (m *manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownHooks = append(m.shutdownHooks, namedHook{name: name, hook: hook})
}

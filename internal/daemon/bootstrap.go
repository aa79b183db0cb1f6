// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/ManuGH/subcallback/internal/api"
	"github.com/ManuGH/subcallback/internal/callback"
	"github.com/ManuGH/subcallback/internal/config"
	submanager "github.com/ManuGH/subcallback/internal/domain/subscription/manager"
	"github.com/ManuGH/subcallback/internal/domain/subscription/store"
	"github.com/ManuGH/subcallback/internal/engine"
	"github.com/ManuGH/subcallback/internal/log"
	pnet "github.com/ManuGH/subcallback/internal/platform/net"
	"github.com/ManuGH/subcallback/internal/ratelimit"
	"github.com/ManuGH/subcallback/internal/resilience"
	"github.com/ManuGH/subcallback/internal/version"
)

const httpTracerName = "subcallback/http"

// Build wires every component from cfg into a runnable App. holder may be nil
// when hot reload is not wanted.
func Build(ctx context.Context, cfg config.AppConfig, holder *config.ConfigHolder) (*App, error) {
	logger := log.WithComponent("daemon")

	dialect, err := callback.ParseDialect(cfg.Callback.Dialect)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(store.Config{
		Backend: cfg.Store.Backend,
		Path:    cfg.Store.Path,
		Redis: store.RedisConfig{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	closeStore := func() {
		if cerr := st.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("failed to close store")
		}
	}

	purged, err := store.PurgeOrphans(ctx, st, "")
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("purge orphaned records: %w", err)
	}

	transport := callback.NewTransport(
		callback.Codec{Dialect: dialect},
		callback.WithBreakers(resilience.NewHostBreakers(cfg.Callback.BreakerThreshold, cfg.Callback.BreakerReset)),
	)
	admission := ratelimit.New(ratelimit.Config{
		GlobalRate:   rate.Limit(cfg.Callback.AdmissionRPS),
		GlobalBurst:  cfg.Callback.AdmissionBurst,
		PerHostRate:  rate.Limit(cfg.Callback.PerHostRPS),
		PerHostBurst: cfg.Callback.PerHostBurst,
	})

	subs, err := submanager.New(cfg.Callback.ManagerSettings(), transport,
		submanager.WithStore(st),
		submanager.WithAdmission(admission),
	)
	if err != nil {
		closeStore()
		return nil, err
	}

	deps := api.Deps{
		Manager:  subs,
		Executor: engine.NewDemo(cfg.Engine.TickInterval),
		Store:    st,
	}
	if holder != nil {
		deps.Reloader = holder
	}
	apiCfg := api.Config{
		ContextHeaders: cfg.Callback.ContextHeaders,
		RateLimitRPM:   cfg.Server.RateLimitRPM,
		JWTSecret:      cfg.Admin.JWTSecret,
		Version:        version.Version,
	}
	if cfg.Telemetry.Enabled {
		apiCfg.TracingService = httpTracerName
	}
	if cfg.Callback.RestrictCallbacks {
		policy, err := pnet.NewCallbackPolicy(cfg.Callback.AllowedHosts, cfg.Callback.AllowedCIDRs)
		if err != nil {
			closeStore()
			return nil, fmt.Errorf("callback policy: %w", err)
		}
		apiCfg.CallbackPolicy = policy
	}
	srv, err := api.New(apiCfg, deps)
	if err != nil {
		closeStore()
		return nil, err
	}

	mgr, err := NewManager(cfg.Server, srv.Handler())
	if err != nil {
		closeStore()
		return nil, err
	}
	// LIFO: sessions close first, then their stream pumps, then the store.
	mgr.RegisterShutdownHook("store", func(context.Context) error { return st.Close() })
	mgr.RegisterShutdownHook("streams", srv.Close)
	mgr.RegisterShutdownHook("subscriptions", subs.Shutdown)

	logger.Info().
		Str(log.FieldEvent, "daemon.built").
		Str("store", cfg.Store.Backend).
		Str(log.FieldDialect, string(dialect)).
		Int("purged_records", purged).
		Bool("admin_auth", cfg.Admin.JWTSecret != "").
		Msg("components wired")

	return NewApp(mgr, holder, subs), nil
}

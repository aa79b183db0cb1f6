// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Command subcallback serves GraphQL subscriptions to a federation router over
// the HTTP callback protocol.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/subcallback/internal/config"
	"github.com/ManuGH/subcallback/internal/daemon"
	sclog "github.com/ManuGH/subcallback/internal/log"
	"github.com/ManuGH/subcallback/internal/telemetry"
	"github.com/ManuGH/subcallback/internal/version"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			os.Exit(runConfigCLI(os.Args[2:]))
		case "healthcheck":
			os.Exit(runHealthcheckCLI(os.Args[2:]))
		case "token":
			os.Exit(runTokenCLI(os.Args[2:]))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Safe defaults until config is loaded
	sclog.Configure(sclog.Config{
		Level:   "info",
		Service: "subcallback",
		Version: version.Version,
	})
	logger := sclog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := strings.TrimSpace(*configPath)
	loader := config.NewLoader(path, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().Err(err).
			Str(sclog.FieldEvent, "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
	}

	sclog.Configure(sclog.Config{
		Level:   cfg.Log.Level,
		Service: cfg.Log.Service,
		Version: cfg.Version,
	})

	source := "env+defaults"
	if path != "" {
		source = "file"
	}
	logger.Info().
		Str(sclog.FieldEvent, "config.loaded").
		Str("source", source).
		Str("path", path).
		Str("config", cfg.String()).
		Msg("loaded configuration")
	for _, key := range loader.UnknownEnvKeys(os.Environ()) {
		logger.Warn().Str(sclog.FieldEvent, "config.unknown_env").Str("key", key).Msg("ignoring unknown environment variable")
	}
	if cfg.Admin.JWTSecret == "" {
		logger.Warn().Str("security", "weak").Msg("admin API is unauthenticated; set SUBCB_ADMIN_JWT_SECRET")
	}

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Log.Service,
		ServiceVersion: version.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		logger.Fatal().Err(err).Str(sclog.FieldEvent, "telemetry.init_failed").Msg("failed to initialise tracing")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	var holder *config.ConfigHolder
	if path != "" {
		holder = config.NewConfigHolder(cfg, loader)
	}

	app, err := daemon.Build(ctx, cfg, holder)
	if err != nil {
		logger.Fatal().Err(err).Str(sclog.FieldEvent, "startup.failed").Msg("failed to build daemon")
	}

	logger.Info().
		Str(sclog.FieldEvent, "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("build_date", version.Date).
		Str("addr", cfg.Server.Listen).
		Msg("starting subcallback")

	if err := app.Run(ctx); err != nil {
		logger.Error().Err(err).Str(sclog.FieldEvent, "daemon.failed").Msg("daemon exited with error")
		stop()
		os.Exit(1)
	}
}

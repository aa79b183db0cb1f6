// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/subcallback/internal/config"
	submanager "github.com/ManuGH/subcallback/internal/domain/subscription/manager"
	"github.com/ManuGH/subcallback/internal/log"
)

// SettingsApplier receives protocol tunables on every config swap.
type SettingsApplier interface {
	UpdateSettings(s submanager.Settings) error
}

// App owns the long-lived runtime lifecycle (watchers, reload wiring) and
// delegates listener management to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	cfgHolder    *config.ConfigHolder
	settings     SettingsApplier
	reloadSignal os.Signal
}

// NewApp creates a new App orchestrator. cfgHolder and settings may be nil.
func NewApp(manager Manager, cfgHolder *config.ConfigHolder, settings SettingsApplier) *App {
	return &App{
		logger:       log.WithComponent("daemon"),
		manager:      manager,
		cfgHolder:    cfgHolder,
		settings:     settings,
		reloadSignal: syscall.SIGHUP,
	}
}

// Manager returns the listener manager.
func (a *App) Manager() Manager { return a.manager }

// Run starts all owned background subsystems and blocks until ctx is cancelled
// or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	// Best-effort: startup does not fail if the watcher cannot be started.
	if a.cfgHolder != nil {
		if err := a.cfgHolder.StartWatcher(ctx); err != nil {
			a.logger.Warn().Err(err).Str(log.FieldEvent, "config.watcher_start_failed").Msg("failed to start config watcher")
		}

		applyCh := make(chan config.AppConfig, 1)
		a.cfgHolder.RegisterListener(applyCh)
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case next := <-applyCh:
					a.apply(next)
				}
			}
		})
	}

	if a.cfgHolder != nil && a.reloadSignal != nil {
		g.Go(func() error {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, a.reloadSignal)
			defer signal.Stop(hupChan)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hupChan:
					a.logger.Info().
						Str(log.FieldEvent, "config.reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal, reloading config")
					if err := a.cfgHolder.Reload(ctx); err != nil {
						a.logger.Warn().Err(err).
							Str(log.FieldEvent, "config.reload_failed").
							Msg("config reload failed")
					}
				}
			}
		})
	}

	g.Go(func() error {
		return a.manager.Start(ctx)
	})

	return g.Wait()
}

// apply pushes the hot-reloadable parts of next into the running system.
func (a *App) apply(next config.AppConfig) {
	if err := log.SetLevel(next.Log.Level); err != nil {
		a.logger.Warn().Err(err).Str(log.FieldEvent, "config.apply_failed").Msg("log level not applied")
	}
	if a.settings == nil {
		return
	}
	if err := a.settings.UpdateSettings(next.Callback.ManagerSettings()); err != nil {
		a.logger.Warn().Err(err).Str(log.FieldEvent, "config.apply_failed").Msg("callback settings not applied")
	}
}

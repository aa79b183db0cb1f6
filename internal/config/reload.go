// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/ManuGH/subcallback/internal/log"
)

const defaultDebounce = 500 * time.Millisecond

// ConfigHolder holds configuration with atomic reloading capability.
// Reloads come from file changes, SIGHUP or the admin API.
type ConfigHolder struct {
	mu       sync.RWMutex
	current  AppConfig
	loader   *Loader
	watcher  *fsnotify.Watcher
	logger   zerolog.Logger
	debounce time.Duration

	reloadMu        sync.RWMutex
	reloadListeners []chan<- AppConfig
}

// NewConfigHolder creates a new configuration holder with initial config.
func NewConfigHolder(initial AppConfig, loader *Loader) *ConfigHolder {
	return &ConfigHolder{
		current:  initial,
		loader:   loader,
		logger:   log.WithComponent("config"),
		debounce: defaultDebounce,
	}
}

// Get returns the current configuration (thread-safe read).
func (h *ConfigHolder) Get() AppConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Clone(h.current)
}

// Reload loads and validates the configuration again. On failure the old
// configuration stays in place.
func (h *ConfigHolder) Reload(_ context.Context) error {
	h.logger.Info().Str(log.FieldEvent, "config.reload_start").Msg("reloading configuration")

	next, err := h.loader.Load()
	if err != nil {
		h.logger.Error().
			Err(err).
			Str(log.FieldEvent, "config.reload_failed").
			Msg("failed to load new configuration")
		return fmt.Errorf("load config: %w", err)
	}

	h.mu.Lock()
	old := h.current
	h.current = next
	h.mu.Unlock()

	h.logChanges(old, next)
	h.notifyListeners(next)

	h.logger.Info().
		Str(log.FieldEvent, "config.reload_success").
		Msg("configuration reloaded successfully")
	return nil
}

// StartWatcher watches the config file for changes until ctx is done.
// If no config file is in use this is a no-op.
func (h *ConfigHolder) StartWatcher(ctx context.Context) error {
	path := h.loader.Path()
	if path == "" {
		h.logger.Info().
			Str(log.FieldEvent, "config.watcher_disabled").
			Msg("config file watcher disabled (using ENV-only configuration)")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory so editors that replace the file are still seen.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}
	h.watcher = watcher

	h.logger.Info().
		Str(log.FieldEvent, "config.watcher_started").
		Str(log.FieldPath, path).
		Msg("watching config file for changes")

	go h.watchLoop(ctx, filepath.Clean(path))
	return nil
}

func (h *ConfigHolder) watchLoop(ctx context.Context, path string) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		_ = h.watcher.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str(log.FieldEvent, "config.watcher_stopped").Msg("config watcher stopped")
			return

		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			h.logger.Debug().
				Str(log.FieldEvent, "config.file_changed").
				Str("op", event.Op.String()).
				Msg("config file changed")

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(h.debounce, func() {
				if ctx.Err() != nil {
					return
				}
				if err := h.Reload(ctx); err != nil {
					h.logger.Error().
						Err(err).
						Str(log.FieldEvent, "config.auto_reload_failed").
						Msg("automatic config reload failed")
				}
			})

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().
				Err(err).
				Str(log.FieldEvent, "config.watcher_error").
				Msg("config watcher error")
		}
	}
}

// RegisterListener registers a channel to receive config reload notifications.
// The caller is responsible for closing the channel.
func (h *ConfigHolder) RegisterListener(ch chan<- AppConfig) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()
	h.reloadListeners = append(h.reloadListeners, ch)
}

// notifyListeners sends the new config to all registered listeners (non-blocking).
func (h *ConfigHolder) notifyListeners(next AppConfig) {
	h.reloadMu.RLock()
	defer h.reloadMu.RUnlock()

	for _, ch := range h.reloadListeners {
		select {
		case ch <- Clone(next):
		default:
			h.logger.Warn().
				Str(log.FieldEvent, "config.listener_skip").
				Msg("skipped notifying listener (channel full)")
		}
	}
}

// logChanges logs the reloadable fields that differ.
func (h *ConfigHolder) logChanges(old, next AppConfig) {
	if old.Callback.ManagerSettings() != next.Callback.ManagerSettings() {
		h.logger.Info().
			Str(log.FieldEvent, "config.callback_changed").
			Dur("old_heartbeat", old.Callback.HeartbeatInterval).
			Dur("new_heartbeat", next.Callback.HeartbeatInterval).
			Int("old_attempts", old.Callback.MaxDeliveryAttempts).
			Int("new_attempts", next.Callback.MaxDeliveryAttempts).
			Msg("config changed: callback settings")
	}
	if old.Log.Level != next.Log.Level {
		h.logger.Info().
			Str(log.FieldEvent, "config.log_level_changed").
			Str("old", old.Log.Level).
			Str("new", next.Log.Level).
			Msg("config changed: log level")
	}
	if old.Server.Listen != next.Server.Listen || old.Store != next.Store {
		h.logger.Warn().
			Str(log.FieldEvent, "config.restart_required").
			Msg("listen address or store changed; restart to apply")
	}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package store

import (
	"fmt"

	"github.com/ManuGH/subcallback/internal/domain/subscription/ports"
)

// Config selects and parameterises a RecordStore backend.
type Config struct {
	Backend string // memory, sqlite or redis
	Path    string
	Redis   RedisConfig
}

// Open creates a RecordStore based on the backend configuration.
func Open(cfg Config) (ports.RecordStore, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite backend requires a path")
		}
		return NewSqliteStore(cfg.Path)
	case "redis":
		if cfg.Redis.Addr == "" {
			return nil, fmt.Errorf("redis backend requires an address")
		}
		return NewRedisStore(cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Backend)
	}
}

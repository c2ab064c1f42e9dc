// ABOUTME: Persistent key-value store adapter for session credentials
// ABOUTME: Best-effort contract: backend failures are logged, never returned

// Package storage persists small string values (the bearer token and the
// serialized session user) in whatever medium the host offers: a file in the
// user's config directory, a local SQLite database, Redis, or process memory.
//
// Every Store is best-effort. When the medium is unavailable, Set and Remove
// silently do nothing and Get reports a miss. Callers never handle storage
// errors; they only observe presence or absence of values.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/dangquan18/subme/config"
)

// Store is the persistent key-value contract
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
	Remove(ctx context.Context, key string)
	Clear(ctx context.Context)
}

// Open builds the store selected by cfg.Store. Only construction can fail;
// once built, the store follows the best-effort contract.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Store {
	case config.StoreMemory:
		return NewMemoryStore(), nil
	case config.StoreFile:
		return NewFileStore(filepath.Join(cfg.ConfigDir, "session.json"), logger), nil
	case config.StoreSQLite:
		return OpenSQLite(ctx, filepath.Join(cfg.ConfigDir, "session.db"), logger)
	case config.StoreRedis:
		return OpenRedis(ctx, cfg.RedisURL, cfg.RedisPrefix, logger)
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// Close releases resources held by s, if any
func Close(s Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Package artifact persists serialized environment artifacts keyed by name.
//
// Three backends are available: plain files in a directory (the default),
// a SQLite database through GORM, and Redis. All of them report a missing
// key as ErrNotFound.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNotFound is returned by Load when no artifact exists for a key.
var ErrNotFound = errors.New("artifact not found")

// Store loads and saves opaque artifact payloads.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Close() error
}

// Backend names accepted by New.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config selects and configures a backend.
type Config struct {
	Backend    string
	Dir        string // file backend
	SQLitePath string // sqlite backend; empty means in-memory
	RedisAddr  string // redis backend
	RedisTTL   int    // redis key TTL in seconds; 0 keeps keys forever
}

// New creates the store selected by cfg.Backend.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileStore(cfg.Dir), nil
	case BackendSQLite:
		return NewSQLiteStore(cfg.SQLitePath, logger)
	case BackendRedis:
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisTTL)
	default:
		return nil, fmt.Errorf("unknown artifact backend: %s", cfg.Backend)
	}
}

// probeKey is never written; loading it exercises the backend round trip.
const probeKey = "readiness-probe"

// Ping reports whether s can serve loads. A missing key counts as healthy.
func Ping(ctx context.Context, s Store) error {
	_, err := s.Load(ctx, probeKey)
	if err == nil || errors.Is(err, ErrNotFound) {
		return nil
	}
	return fmt.Errorf("artifact store unavailable: %w", err)
}

package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alfonsusrr/financial-mind-maze-sub000/config"
)

// ErrClosed is returned by stores used after Close
var ErrClosed = errors.New("store is closed")

// Store is a minimal durable string store
type Store interface {
	// Get returns the value for key; ok is false when it is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Open builds the store selected by cfg.Driver
func Open(cfg config.StorageConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "file":
		if err := ensureDir(cfg.Path); err != nil {
			return nil, err
		}
		return NewFileStore(cfg.Path)
	case "bolt", "bbolt":
		if err := ensureDir(cfg.Path); err != nil {
			return nil, err
		}
		return OpenBolt(cfg.Path)
	case "sqlite", "sqlite3":
		// URIs and in-memory databases name no directory of their own
		if cfg.Path != ":memory:" && !strings.HasPrefix(cfg.Path, "file:") {
			if err := ensureDir(cfg.Path); err != nil {
				return nil, err
			}
		}
		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func requireKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("key is required")
	}
	return nil
}

func ensureDir(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create storage directory: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"fmt"

	"github.com/gmsas95/dosekeeper-cli/internal/config"
)

// Open creates the KV backend named by cfg.Backend
func Open(ctx context.Context, cfg config.StorageConfig) (KV, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileKV(cfg.FilePath)
	case "sqlite":
		return NewSQLiteKV(cfg.SQLitePath)
	case "badger":
		return NewBadgerKV(cfg.BadgerPath)
	case "postgres":
		return NewPostgresKV(ctx, cfg.PostgresDSN)
	case "memory":
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

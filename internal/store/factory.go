package store

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Multiscale-Genomics/mg-dm-api/internal/config"
	"github.com/Multiscale-Genomics/mg-dm-api/internal/dmp"
)

// NewStoreFromConfig creates an EntryStore implementation based on the
// store config type.
func NewStoreFromConfig(ctx context.Context, cfg config.StoreConfig) (dmp.EntryStore, error) {
	switch cfg.Type {
	case "mongo":
		return NewMongoStore(ctx, cfg)
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite store")
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, "dm.db"))
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}

// Package store persists the market set the oracle operates on. Two
// backends exist: a single JSON file for small deployments and SQLite
// for anything that outgrows it.
package store

import (
	"context"
	"fmt"

	"github.com/settlerhq/settler/internal/model"
)

// Store loads and saves the full market set. Save replaces the stored
// set wholesale; the scheduler owns merge semantics.
type Store interface {
	Load(ctx context.Context) ([]model.Market, error)
	Save(ctx context.Context, markets []model.Market) error
	Close() error
}

// Open creates the store selected by the config.
func Open(cfg model.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileStore(cfg.Path), nil
	case "sqlite":
		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

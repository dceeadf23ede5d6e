// Package storage selects the persistence backend shared by both APIs.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/leviettung200/ByteDefence/internal/config"
	"github.com/leviettung200/ByteDefence/internal/domain/books"
	"github.com/leviettung200/ByteDefence/internal/domain/orders"
	"github.com/leviettung200/ByteDefence/internal/storage/memory"
	"github.com/leviettung200/ByteDefence/internal/storage/postgres"
)

// Store groups data access by domain.
type Store interface {
	Books() books.Repository
	Orders() orders.Repository
	Ping(ctx context.Context) error
	// Kind names the backend ("memory" or "postgres") for health output.
	Kind() string
	Close()
}

var (
	_ Store = (*memory.Store)(nil)
	_ Store = (*postgres.Store)(nil)
)

// Open returns the seeded in-memory store when cfg.URL is empty, and a
// PostgreSQL store otherwise. With AutoMigrate set, pending migrations run
// and empty tables receive the demo data.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (Store, error) {
	if cfg.URL == "" {
		logger.Info().Str("backend", "memory").Msg("using in-memory store")
		return memory.NewStore(), nil
	}

	if cfg.AutoMigrate {
		if err := postgres.MigrateUp(cfg.URL, ""); err != nil {
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
	}

	store, err := postgres.Open(ctx, cfg.URL, cfg.MaxConnections)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := store.SeedIfEmpty(ctx, time.Now().UTC()); err != nil {
			store.Close()
			return nil, fmt.Errorf("seed database: %w", err)
		}
	}

	logger.Info().
		Str("backend", "postgres").
		Int("max_connections", cfg.MaxConnections).
		Bool("auto_migrate", cfg.AutoMigrate).
		Msg("connected to database")
	return store, nil
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Msaabiam/Global-Bus/config"
	"github.com/Msaabiam/Global-Bus/internal/pg"
	"github.com/Msaabiam/Global-Bus/internal/repository"
	"github.com/Msaabiam/Global-Bus/internal/repository/postgres"
	"github.com/Msaabiam/Global-Bus/internal/repository/sqlite"
)

// OpenStore подключает хранилище по storage.driver и применяет миграции.
func OpenStore(ctx context.Context, cfg config.Storage) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := pg.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres migrate: %w", err)
		}
		slog.Info("storage ready", "driver", cfg.Driver)
		return postgres.NewStore(pool), nil

	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.SQLite.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite dir: %w", err)
			}
		}
		s, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		slog.Info("storage ready", "driver", cfg.Driver, "path", cfg.SQLite.Path)
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

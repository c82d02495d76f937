package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/officeflow/attendance-bot/internal/config"
	"github.com/officeflow/attendance-bot/internal/persistence"
)

// Open builds the Store selected by cfg.Driver: "pgx" uses a pgx pool,
// "sqlite" and "postgres" go through gorm.
func Open(ctx context.Context, cfg config.StoreConfig, loc *time.Location, logger *zap.Logger) (Store, error) {
	opts := Options{Timeout: cfg.Timeout(), Location: loc}

	switch cfg.Driver {
	case "pgx":
		pg, err := persistence.NewPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				pg.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		return NewPgxStore(pg.PoolHandle(), opts), nil
	case persistence.DialectSQLite, persistence.DialectPostgres:
		db, err := persistence.OpenGorm(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
		}
		store := NewGormStore(db, opts)
		if cfg.RunMigrations {
			if err := persistence.MigrateGorm(ctx, db, cfg.Driver, logger); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		logger.Info("store opened", zap.String("driver", cfg.Driver))
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

package kv

import (
	"context"
	"fmt"

	"minishop/internal/config"
	"minishop/internal/db"
	"minishop/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Open builds the repository selected by cfg.Storage.Driver. The postgres
// backend expects the schema to be migrated already (cmd/migrate).
func Open(ctx context.Context, cfg config.Config, log *logger.Logger) (Repository, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		return NewMemory(), nil
	case config.StorageSQLite:
		return NewSQLite(cfg.Storage.SQLitePath)
	case config.StorageRedis:
		return NewRedis(ctx, cfg.Redis)
	case config.StoragePostgres:
		pool, err := db.Connect(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("connect db: %w", err)
		}
		return &poolOwner{Repository: NewPostgres(pool, log), pool: pool}, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

// poolOwner closes the pool it was opened with.
type poolOwner struct {
	Repository
	pool *pgxpool.Pool
}

func (p *poolOwner) Close() error {
	p.pool.Close()
	return nil
}

package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// Apply runs all embedded migrations up and reports the resulting schema version.
func Apply(ctx context.Context, pool *pgxpool.Pool) (uint, error) {
	m, closeDB, err := newMigrator(ctx, pool)
	if err != nil {
		return 0, err
	}
	defer closeDB()
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("migrate up: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("read version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}

// Down rolls back every migration. Used by integration tests to start clean.
func Down(ctx context.Context, pool *pgxpool.Pool) error {
	m, closeDB, err := newMigrator(ctx, pool)
	if err != nil {
		return err
	}
	defer closeDB()
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

func newMigrator(ctx context.Context, pool *pgxpool.Pool) (*migrate.Migrate, func(), error) {
	srcDriver, err := iofs.New(migrationsFS, "sql")
	if err != nil {
		return nil, nil, fmt.Errorf("init iofs: %w", err)
	}

	sqlDB, err := sql.Open("pgx", pool.Config().ConnString())
	if err != nil {
		return nil, nil, fmt.Errorf("open sql db: %w", err)
	}
	closeDB := func() { _ = sqlDB.Close() }

	if err := sqlDB.PingContext(ctx); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("ping sql db: %w", err)
	}

	dbDriver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("init db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", srcDriver, "pgx", dbDriver)
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("init migrate: %w", err)
	}
	return m, closeDB, nil
}

package kv

import (
	"context"
	"errors"

	"minishop/internal/domain"
	"minishop/internal/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewPostgres stores entries in the kv_entries table. The pool stays owned by
// the caller; Close does not close it.
func NewPostgres(pool *pgxpool.Pool, log *logger.Logger) Repository {
	if log == nil {
		log = logger.Nop()
	}
	return &postgresRepo{pool: pool, logger: log}
}

func (r *postgresRepo) Get(ctx context.Context, namespace, key string) (string, error) {
	const q = `
SELECT value
FROM kv_entries
WHERE namespace = $1 AND entry_key = $2
`
	var value string
	if err := r.pool.QueryRow(ctx, q, namespace, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		r.logger.Errorf(ctx, err, "kv repo: get namespace=%s key=%s", namespace, key)
		return "", err
	}
	r.logger.Debugf(ctx, "kv repo: get namespace=%s key=%s bytes=%d", namespace, key, len(value))
	return value, nil
}

func (r *postgresRepo) Set(ctx context.Context, namespace, key, value string) error {
	const q = `
INSERT INTO kv_entries (namespace, entry_key, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (namespace, entry_key) DO UPDATE
SET value = EXCLUDED.value,
    updated_at = EXCLUDED.updated_at
`
	if _, err := r.pool.Exec(ctx, q, namespace, key, value); err != nil {
		r.logger.Errorf(ctx, err, "kv repo: set namespace=%s key=%s", namespace, key)
		return err
	}
	r.logger.Debugf(ctx, "kv repo: set namespace=%s key=%s bytes=%d", namespace, key, len(value))
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, namespace, key string) error {
	const q = `DELETE FROM kv_entries WHERE namespace = $1 AND entry_key = $2`
	if _, err := r.pool.Exec(ctx, q, namespace, key); err != nil {
		r.logger.Errorf(ctx, err, "kv repo: delete namespace=%s key=%s", namespace, key)
		return err
	}
	return nil
}

func (r *postgresRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *postgresRepo) Close() error { return nil }

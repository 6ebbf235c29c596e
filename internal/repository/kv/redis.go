package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"minishop/internal/config"
	"minishop/internal/domain"

	"github.com/redis/go-redis/v9"
)

const keyNamespace = "minishop"

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Del(context.Context, ...string) *redis.IntCmd
}

type redisRepo struct {
	store cmdable
	raw   *redis.Client
}

// NewRedis connects to Redis and verifies connectivity.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (Repository, error) {
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &redisRepo{store: raw, raw: raw}, nil
}

func redisOptions(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("redis url or address is required")
	}
	if cfg.URL != "" {
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		if opts.PoolSize == 0 {
			opts.PoolSize = cfg.PoolSize
		}
		return opts, nil
	}
	return &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}, nil
}

func redisKey(namespace, key string) string {
	return strings.Join([]string{keyNamespace, namespace, key}, ":")
}

func (r *redisRepo) Get(ctx context.Context, namespace, key string) (string, error) {
	v, err := r.store.Get(ctx, redisKey(namespace, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrNotFound
	}
	return v, err
}

func (r *redisRepo) Set(ctx context.Context, namespace, key, value string) error {
	return r.store.Set(ctx, redisKey(namespace, key), value, 0).Err()
}

func (r *redisRepo) Delete(ctx context.Context, namespace, key string) error {
	return r.store.Del(ctx, redisKey(namespace, key)).Err()
}

func (r *redisRepo) Ping(ctx context.Context) error {
	return r.store.Ping(ctx).Err()
}

func (r *redisRepo) Close() error {
	if r.raw == nil {
		return nil
	}
	return r.raw.Close()
}

package kv

import "context"

// Repository persists raw text values under (namespace, key). Missing keys
// yield domain.ErrNotFound.
type Repository interface {
	Get(ctx context.Context, namespace, key string) (string, error)
	Set(ctx context.Context, namespace, key, value string) error
	Delete(ctx context.Context, namespace, key string) error
	Ping(ctx context.Context) error
	Close() error
}

package keystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"minishop/internal/domain"
	"minishop/internal/logger"
	"minishop/internal/repository/kv"
)

// Store serializes values as JSON on top of a kv.Repository.
type Store struct {
	repo   kv.Repository
	logger *logger.Logger
}

func New(repo kv.Repository, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{repo: repo, logger: log}
}

// Scope returns the key space of one device namespace.
func (s *Store) Scope(namespace string) *Scope {
	return &Scope{store: s, namespace: namespace}
}

// Ping reports whether the backing repository is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// Scope is the keyed store of a single namespace.
type Scope struct {
	store     *Store
	namespace string
}

func (s *Scope) Namespace() string { return s.namespace }

// Get decodes the value at key into dst, which must be a non-nil pointer.
// Missing and unparsable values both report found=false and leave dst at its
// zero value; a partially decoded value never reaches dst.
func (s *Scope) Get(ctx context.Context, key Key, dst any) (bool, error) {
	target := reflect.ValueOf(dst)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return false, fmt.Errorf("read %s: destination must be a non-nil pointer, got %T", key, dst)
	}
	target.Elem().SetZero()

	raw, err := s.store.repo.Get(ctx, s.namespace, string(key))
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	fresh := reflect.New(target.Elem().Type())
	if err := json.Unmarshal([]byte(raw), fresh.Interface()); err != nil {
		s.store.logger.Warnf(ctx, "keystore: namespace=%s key=%s treated as absent: %v",
			s.namespace, key, fmt.Errorf("%w: %v", domain.ErrMalformedPersistedData, err))
		return false, nil
	}
	target.Elem().Set(fresh.Elem())
	return true, nil
}

// Set encodes value and writes it at key.
func (s *Scope) Set(ctx context.Context, key Key, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.store.repo.Set(ctx, s.namespace, string(key), string(raw)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *Scope) Remove(ctx context.Context, key Key) error {
	if err := s.store.repo.Delete(ctx, s.namespace, string(key)); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

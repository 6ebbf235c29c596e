package shopper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"minishop/internal/keystore"
	"minishop/internal/logger"
	"minishop/internal/service/cart"
	"minishop/internal/service/session"
	"minishop/internal/service/wishlist"
)

// Registry opens the stores of a device namespace and serializes work on
// each namespace. Different namespaces run in parallel.
type Registry struct {
	store       *keystore.Store
	sessionOpts []session.Option
	now         func() time.Time
	logger      *logger.Logger

	mu    sync.Mutex
	locks map[string]*namespaceLock
}

type namespaceLock struct {
	sem  chan struct{}
	refs int
}

type Option func(*Registry)

func WithSessionOptions(opts ...session.Option) Option {
	return func(r *Registry) { r.sessionOpts = append(r.sessionOpts, opts...) }
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func WithLogger(l *logger.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

func NewRegistry(store *keystore.Store, opts ...Option) *Registry {
	r := &Registry{
		store:  store,
		now:    time.Now,
		logger: logger.Nop(),
		locks:  make(map[string]*namespaceLock),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do runs fn with the shopper of namespace while holding that namespace's
// lock. The shopper must not be used after fn returns.
func (r *Registry) Do(ctx context.Context, namespace string, fn func(context.Context, *Shopper) error) error {
	release, err := r.acquire(ctx, namespace)
	if err != nil {
		return err
	}
	defer release()

	s, err := r.open(ctx, namespace)
	if err != nil {
		return err
	}
	return fn(ctx, s)
}

// Ping reports whether the backing store is reachable.
func (r *Registry) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

func (r *Registry) open(ctx context.Context, namespace string) (*Shopper, error) {
	scope := r.store.Scope(namespace)
	sessionOpts := append([]session.Option{session.WithLogger(r.logger)}, r.sessionOpts...)
	sess, err := session.Load(ctx, scope, sessionOpts...)
	if err != nil {
		return nil, fmt.Errorf("open shopper %s: %w", namespace, err)
	}
	identity := sess.Current()
	c, err := cart.New(ctx, scope, identity)
	if err != nil {
		return nil, fmt.Errorf("open shopper %s: %w", namespace, err)
	}
	w, err := wishlist.New(ctx, scope, identity)
	if err != nil {
		return nil, fmt.Errorf("open shopper %s: %w", namespace, err)
	}
	sess.OnIdentityChange(c.OnIdentityChange)
	sess.OnIdentityChange(w.OnIdentityChange)
	return &Shopper{
		Namespace: namespace,
		Session:   sess,
		Cart:      c,
		Wishlist:  w,
		now:       r.now,
		logger:    r.logger,
	}, nil
}

func (r *Registry) acquire(ctx context.Context, namespace string) (func(), error) {
	r.mu.Lock()
	l, ok := r.locks[namespace]
	if !ok {
		l = &namespaceLock{sem: make(chan struct{}, 1)}
		r.locks[namespace] = l
	}
	l.refs++
	r.mu.Unlock()

	select {
	case l.sem <- struct{}{}:
		return func() {
			<-l.sem
			r.unref(namespace, l)
		}, nil
	case <-ctx.Done():
		r.unref(namespace, l)
		return nil, ctx.Err()
	}
}

func (r *Registry) unref(namespace string, l *namespaceLock) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(r.locks, namespace)
	}
}

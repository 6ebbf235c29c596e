package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"minishop/internal/domain"
	"minishop/internal/keystore"
	"minishop/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

type store interface {
	Get(ctx context.Context, key keystore.Key, dst any) (bool, error)
	Set(ctx context.Context, key keystore.Key, value any) error
	Remove(ctx context.Context, key keystore.Key) error
}

// ErrListenerFailed marks an identity change that was persisted but not
// accepted by every listener.
var ErrListenerFailed = errors.New("identity change listener failed")

// Listener is told about every change of the active identity; nil means the
// session became anonymous.
type Listener func(ctx context.Context, identity *domain.Identity) error

// Service is the session of one device: anonymous or signed in as one
// identity of the simulated directory. Passwords are accepted and ignored.
// It is not safe for concurrent use.
type Service struct {
	store     store
	current   *domain.Identity
	listeners []Listener
	latency   time.Duration
	now       func() time.Time
	logger    *logger.Logger
}

type Option func(*Service)

// WithLatency delays every mutation by d.
func WithLatency(d time.Duration) Option {
	return func(s *Service) { s.latency = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// Load restores the active identity persisted in st, if any.
func Load(ctx context.Context, st store, opts ...Option) (*Service, error) {
	s := &Service{
		store:  st,
		now:    time.Now,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	var identity domain.Identity
	found, err := st.Get(ctx, keystore.UserKey(), &identity)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if found && identity.ID != "" {
		s.current = &identity
	}
	return s, nil
}

// OnIdentityChange registers l for later identity changes.
func (s *Service) OnIdentityChange(l Listener) {
	s.listeners = append(s.listeners, l)
}

// Current returns a copy of the active identity, or nil when anonymous.
func (s *Service) Current() *domain.Identity {
	return s.current.Clone()
}

func (s *Service) Authenticated() bool {
	return s.current != nil
}

type SignUpInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required,max=100"`
}

func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*domain.Identity, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := checkInput(in); err != nil {
		return nil, err
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	directory, err := s.directory(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := findByEmail(directory, in.Email); ok {
		return nil, fmt.Errorf("sign up %s: %w", in.Email, domain.ErrDuplicateEmail)
	}

	identity := &domain.Identity{
		ID:        uuid.NewString(),
		Email:     in.Email,
		Name:      in.Name,
		CreatedAt: s.now().UTC(),
		Orders:    []domain.Order{},
	}
	next := append(append([]domain.Identity(nil), directory...), *identity)
	if err := s.save(ctx, directory, next, identity); err != nil {
		return nil, fmt.Errorf("sign up %s: %w", in.Email, err)
	}
	s.logger.Infof(ctx, "session: sign up identity_id=%s", identity.ID)
	return identity.Clone(), s.switchTo(ctx, identity)
}

// SignIn activates the directory identity with the given email. The password
// is not checked. An error wrapping ErrListenerFailed comes with the identity
// because the sign in is already persisted.
func (s *Service) SignIn(ctx context.Context, email, _ string) (*domain.Identity, error) {
	email = normalizeEmail(email)
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	directory, err := s.directory(ctx)
	if err != nil {
		return nil, err
	}
	idx, ok := findByEmail(directory, email)
	if !ok {
		return nil, fmt.Errorf("sign in %s: %w", email, domain.ErrNotFound)
	}
	identity := directory[idx].Clone()
	if err := s.store.Set(ctx, keystore.UserKey(), identity); err != nil {
		return nil, fmt.Errorf("sign in %s: %w", email, err)
	}
	s.logger.Infof(ctx, "session: sign in identity_id=%s", identity.ID)
	return identity.Clone(), s.switchTo(ctx, &directory[idx])
}

// SignOut clears the active identity; the directory is kept.
func (s *Service) SignOut(ctx context.Context) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	if err := s.store.Remove(ctx, keystore.UserKey()); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	if s.current == nil {
		return nil
	}
	return s.switchTo(ctx, nil)
}

// ProfileUpdate lists the fields to change; nil fields are left as they are.
type ProfileUpdate struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
}

func (s *Service) UpdateProfile(ctx context.Context, in ProfileUpdate) (*domain.Identity, error) {
	if s.current == nil {
		return nil, fmt.Errorf("update profile: %w", domain.ErrNotAuthenticated)
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		in.Email = &email
	}
	if err := checkInput(in); err != nil {
		return nil, err
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	directory, err := s.directory(ctx)
	if err != nil {
		return nil, err
	}
	updated := s.current.Clone()
	if in.Name != nil {
		updated.Name = *in.Name
	}
	if in.Email != nil && *in.Email != updated.Email {
		if idx, ok := findByEmail(directory, *in.Email); ok && directory[idx].ID != updated.ID {
			return nil, fmt.Errorf("update profile: %w", domain.ErrDuplicateEmail)
		}
		updated.Email = *in.Email
	}
	if err := s.save(ctx, directory, replace(directory, *updated), updated); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	s.current = updated
	return updated.Clone(), nil
}

// AppendOrder adds order to the active identity's history.
func (s *Service) AppendOrder(ctx context.Context, order domain.Order) error {
	if s.current == nil {
		return fmt.Errorf("append order: %w", domain.ErrNotAuthenticated)
	}
	if err := s.wait(ctx); err != nil {
		return err
	}
	directory, err := s.directory(ctx)
	if err != nil {
		return err
	}
	updated := s.current.Clone()
	updated.Orders = append(updated.Orders, order)
	if err := s.save(ctx, directory, replace(directory, *updated), updated); err != nil {
		return fmt.Errorf("append order %s: %w", order.ID, err)
	}
	s.current = updated
	s.logger.Infof(ctx, "session: order appended identity_id=%s order_id=%s", updated.ID, order.ID)
	return nil
}

// RemoveOrder drops orderID from the active identity's history. It undoes an
// AppendOrder whose follow-up work failed, so it skips the simulated latency.
func (s *Service) RemoveOrder(ctx context.Context, orderID string) error {
	if s.current == nil {
		return fmt.Errorf("remove order: %w", domain.ErrNotAuthenticated)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	directory, err := s.directory(ctx)
	if err != nil {
		return err
	}
	updated := s.current.Clone()
	updated.Orders = slices.DeleteFunc(updated.Orders, func(o domain.Order) bool { return o.ID == orderID })
	if err := s.save(ctx, directory, replace(directory, *updated), updated); err != nil {
		return fmt.Errorf("remove order %s: %w", orderID, err)
	}
	s.current = updated
	return nil
}

func (s *Service) directory(ctx context.Context) ([]domain.Identity, error) {
	var directory []domain.Identity
	if _, err := s.store.Get(ctx, keystore.UsersKey(), &directory); err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}
	return directory, nil
}

// save writes the directory and then the active identity. When the second
// write fails the directory is restored to prev.
func (s *Service) save(ctx context.Context, prev, next []domain.Identity, active *domain.Identity) error {
	if err := s.store.Set(ctx, keystore.UsersKey(), next); err != nil {
		return err
	}
	if err := s.store.Set(ctx, keystore.UserKey(), active); err != nil {
		var rollback error
		if prev == nil {
			rollback = s.store.Remove(ctx, keystore.UsersKey())
		} else {
			rollback = s.store.Set(ctx, keystore.UsersKey(), prev)
		}
		if rollback != nil {
			s.logger.Errorf(ctx, rollback, "session: directory rollback failed")
		}
		return multierr.Append(err, rollback)
	}
	return nil
}

func (s *Service) switchTo(ctx context.Context, identity *domain.Identity) error {
	s.current = identity.Clone()
	var errs error
	for _, l := range s.listeners {
		errs = multierr.Append(errs, l(ctx, s.current.Clone()))
	}
	if errs != nil {
		return fmt.Errorf("%w: %w", ErrListenerFailed, errs)
	}
	return nil
}

func (s *Service) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func findByEmail(directory []domain.Identity, email string) (int, bool) {
	for i := range directory {
		if normalizeEmail(directory[i].Email) == email {
			return i, true
		}
	}
	return -1, false
}

func replace(directory []domain.Identity, identity domain.Identity) []domain.Identity {
	next := make([]domain.Identity, 0, len(directory)+1)
	found := false
	for _, d := range directory {
		if d.ID == identity.ID {
			next = append(next, identity)
			found = true
			continue
		}
		next = append(next, d)
	}
	if !found {
		next = append(next, identity)
	}
	return next
}

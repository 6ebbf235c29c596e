package device

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"minishop/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

var signingMethod = jwt.SigningMethodHS256

// Service hands out device tokens. A token's subject is the namespace that
// holds the device's session, cart and wishlist; nothing is stored server side.
type Service struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(cfg config.DeviceConfig, opts ...Option) (*Service, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("device token secret required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("device token ttl must be positive, got %s", cfg.TTL)
	}
	s := &Service{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Grant is the result of Issue.
type Grant struct {
	Token     string    `json:"token"`
	Namespace string    `json:"namespace"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Issue creates a fresh namespace and a signed token for it.
func (s *Service) Issue(ctx context.Context) (Grant, error) {
	if err := ctx.Err(); err != nil {
		return Grant{}, err
	}
	now := s.now()
	namespace := uuid.NewString()
	expiresAt := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   namespace,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(signingMethod, claims).SignedString(s.secret)
	if err != nil {
		return Grant{}, fmt.Errorf("sign device token: %w", err)
	}
	return Grant{Token: token, Namespace: namespace, ExpiresAt: expiresAt.UTC().Truncate(time.Second)}, nil
}

// Lookup returns the namespace of a valid token.
func (s *Service) Lookup(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (any, error) {
			if t.Method != signingMethod {
				return nil, fmt.Errorf("unexpected signing method %s", t.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", fmt.Errorf("%w: subject is not a namespace", ErrInvalidToken)
	}
	return claims.Subject, nil
}

func (s *Service) TTL() time.Duration { return s.ttl }

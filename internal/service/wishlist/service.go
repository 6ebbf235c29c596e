package wishlist

import (
	"context"
	"fmt"
	"slices"

	"minishop/internal/domain"
	"minishop/internal/keystore"
)

type store interface {
	Get(ctx context.Context, key keystore.Key, dst any) (bool, error)
	Set(ctx context.Context, key keystore.Key, value any) error
}

// Service is the wishlist of the active identity on one device, persisted
// after every change. It is not safe for concurrent use.
type Service struct {
	store   store
	key     keystore.Key
	entries []domain.WishlistEntry
}

func New(ctx context.Context, st store, identity *domain.Identity) (*Service, error) {
	s := &Service{store: st}
	if err := s.Rekey(ctx, identity); err != nil {
		return nil, err
	}
	return s, nil
}

// Rekey switches to the wishlist of identity and reloads it.
func (s *Service) Rekey(ctx context.Context, identity *domain.Identity) error {
	key := keystore.WishlistKey(identity)
	var entries []domain.WishlistEntry
	if _, err := s.store.Get(ctx, key, &entries); err != nil {
		return fmt.Errorf("load wishlist %s: %w", key, err)
	}
	s.key = key
	s.entries = dedupe(entries)
	return nil
}

func (s *Service) OnIdentityChange(ctx context.Context, identity *domain.Identity) error {
	return s.Rekey(ctx, identity)
}

func (s *Service) Key() keystore.Key { return s.key }

func (s *Service) Entries() []domain.WishlistEntry {
	return slices.Clone(s.entries)
}

// Add reports whether product was inserted; a present product is left alone.
func (s *Service) Add(ctx context.Context, product domain.Product) (bool, error) {
	if s.Contains(product.ID) {
		return false, nil
	}
	next := append(slices.Clone(s.entries), domain.WishlistEntry{Product: product})
	if err := s.commit(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// Remove reports whether productID was present.
func (s *Service) Remove(ctx context.Context, productID int) (bool, error) {
	i := indexOf(s.entries, productID)
	if i < 0 {
		return false, nil
	}
	if err := s.commit(ctx, slices.Delete(slices.Clone(s.entries), i, i+1)); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) Contains(productID int) bool {
	return indexOf(s.entries, productID) >= 0
}

func (s *Service) Clear(ctx context.Context) error {
	return s.commit(ctx, []domain.WishlistEntry{})
}

func (s *Service) Count() int { return len(s.entries) }

func (s *Service) commit(ctx context.Context, next []domain.WishlistEntry) error {
	if err := s.store.Set(ctx, s.key, next); err != nil {
		return fmt.Errorf("save wishlist %s: %w", s.key, err)
	}
	s.entries = next
	return nil
}

func indexOf(entries []domain.WishlistEntry, productID int) int {
	return slices.IndexFunc(entries, func(e domain.WishlistEntry) bool { return e.ID == productID })
}

func dedupe(entries []domain.WishlistEntry) []domain.WishlistEntry {
	out := make([]domain.WishlistEntry, 0, len(entries))
	for _, e := range entries {
		if indexOf(out, e.ID) < 0 {
			out = append(out, e)
		}
	}
	return out
}

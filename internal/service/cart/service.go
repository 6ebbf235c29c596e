package cart

import (
	"context"
	"fmt"
	"slices"

	"minishop/internal/domain"
	"minishop/internal/keystore"

	"github.com/shopspring/decimal"
)

type store interface {
	Get(ctx context.Context, key keystore.Key, dst any) (bool, error)
	Set(ctx context.Context, key keystore.Key, value any) error
}

// Service is the cart of the active identity on one device. Every mutation
// writes the whole line list before it returns; on a failed write the
// in-memory lines are left as they were. It is not safe for concurrent use.
type Service struct {
	store store
	key   keystore.Key
	lines []domain.CartLine
}

// New loads the cart persisted for identity (nil for the guest cart).
func New(ctx context.Context, st store, identity *domain.Identity) (*Service, error) {
	s := &Service{store: st}
	if err := s.Rekey(ctx, identity); err != nil {
		return nil, err
	}
	return s, nil
}

// Rekey switches to the cart of identity and reloads its lines. The cart
// being left is not written.
func (s *Service) Rekey(ctx context.Context, identity *domain.Identity) error {
	key := keystore.CartKey(identity)
	var lines []domain.CartLine
	if _, err := s.store.Get(ctx, key, &lines); err != nil {
		return fmt.Errorf("load cart %s: %w", key, err)
	}
	s.key = key
	s.lines = sanitize(lines)
	return nil
}

// OnIdentityChange matches session.Listener.
func (s *Service) OnIdentityChange(ctx context.Context, identity *domain.Identity) error {
	return s.Rekey(ctx, identity)
}

func (s *Service) Key() keystore.Key { return s.key }

// Lines returns a copy of the cart lines in insertion order.
func (s *Service) Lines() []domain.CartLine {
	return slices.Clone(s.lines)
}

// Line returns the line of productID, if any.
func (s *Service) Line(productID int) (domain.CartLine, bool) {
	i := indexOf(s.lines, productID)
	if i < 0 {
		return domain.CartLine{}, false
	}
	return s.lines[i], true
}

// AddItem adds one unit of product.
func (s *Service) AddItem(ctx context.Context, product domain.Product) error {
	next := slices.Clone(s.lines)
	if i := indexOf(next, product.ID); i >= 0 {
		next[i].Quantity++
	} else {
		next = append(next, domain.CartLine{Product: product, Quantity: 1})
	}
	return s.commit(ctx, next)
}

// RemoveItem deletes the line of productID; a missing line is a no-op.
func (s *Service) RemoveItem(ctx context.Context, productID int) error {
	i := indexOf(s.lines, productID)
	if i < 0 {
		return nil
	}
	next := slices.Delete(slices.Clone(s.lines), i, i+1)
	return s.commit(ctx, next)
}

// SetQuantity sets the quantity of an existing line; n <= 0 removes it. A
// missing line is a no-op.
func (s *Service) SetQuantity(ctx context.Context, productID, n int) error {
	if n <= 0 {
		return s.RemoveItem(ctx, productID)
	}
	i := indexOf(s.lines, productID)
	if i < 0 {
		return nil
	}
	next := slices.Clone(s.lines)
	next[i].Quantity = n
	return s.commit(ctx, next)
}

func (s *Service) Clear(ctx context.Context) error {
	return s.commit(ctx, []domain.CartLine{})
}

// Count is the sum of all quantities.
func (s *Service) Count() int {
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// Total is the sum of price × quantity over all lines.
func (s *Service) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (s *Service) commit(ctx context.Context, next []domain.CartLine) error {
	if err := s.store.Set(ctx, s.key, next); err != nil {
		return fmt.Errorf("save cart %s: %w", s.key, err)
	}
	s.lines = next
	return nil
}

func indexOf(lines []domain.CartLine, productID int) int {
	return slices.IndexFunc(lines, func(l domain.CartLine) bool { return l.ID == productID })
}

// sanitize drops lines that break the cart invariants, which can only come
// from foreign data in storage.
func sanitize(lines []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 || indexOf(out, l.ID) >= 0 {
			continue
		}
		out = append(out, l)
	}
	return out
}

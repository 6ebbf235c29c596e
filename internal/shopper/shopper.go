package shopper

import (
	"context"
	"fmt"
	"time"

	"minishop/internal/domain"
	"minishop/internal/logger"
	"minishop/internal/service/cart"
	"minishop/internal/service/session"
	"minishop/internal/service/wishlist"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Shopper bundles the stores of one device namespace. The cart and wishlist
// follow the session's identity.
type Shopper struct {
	Namespace string
	Session   *session.Service
	Cart      *cart.Service
	Wishlist  *wishlist.Service

	now    func() time.Time
	logger *logger.Logger
}

// Checkout turns the cart into a processing order on the signed-in identity
// and empties the cart. If either write fails the order is not kept and the
// cart keeps its lines.
func (s *Shopper) Checkout(ctx context.Context) (*domain.Order, error) {
	if !s.Session.Authenticated() {
		return nil, fmt.Errorf("checkout: %w", domain.ErrNotAuthenticated)
	}
	lines := s.Cart.Lines()
	if len(lines) == 0 {
		return nil, fmt.Errorf("checkout: %w", domain.ErrEmptyCart)
	}
	order := domain.Order{
		ID:     "order_" + uuid.NewString(),
		Items:  lines,
		Total:  s.Cart.Total(),
		Status: domain.OrderStatusProcessing,
		Date:   s.now().UTC(),
	}
	if err := s.Session.AppendOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	if err := s.Cart.Clear(ctx); err != nil {
		err = fmt.Errorf("checkout: clear cart: %w", err)
		if rollback := s.Session.RemoveOrder(context.WithoutCancel(ctx), order.ID); rollback != nil {
			s.logger.Errorf(ctx, rollback, "shopper: order %s kept after failed cart clear namespace=%s", order.ID, s.Namespace)
			return nil, multierr.Append(err, rollback)
		}
		return nil, err
	}
	return &order, nil
}

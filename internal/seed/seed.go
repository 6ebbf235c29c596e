package seed

import (
	"context"
	"errors"
	"fmt"

	"minishop/internal/domain"
	"minishop/internal/service/session"
	"minishop/internal/shopper"
)

type registry interface {
	Do(ctx context.Context, namespace string, fn func(context.Context, *shopper.Shopper) error) error
}

type catalog interface {
	ListAll(ctx context.Context, limit int) ([]domain.Product, error)
}

// Demo describes the shopper written by Apply.
type Demo struct {
	Email         string
	Name          string
	CartItems     int
	WishlistItems int
}

// DefaultDemo is the account used for manual testing.
var DefaultDemo = Demo{
	Email:         "demo@minishop.test",
	Name:          "Demo Shopper",
	CartItems:     2,
	WishlistItems: 3,
}

// Apply signs the demo identity into namespace, creating it when missing, and
// fills its cart and wishlist from the first catalog products. Running it
// again adds no duplicate lines beyond one more unit per cart product.
func Apply(ctx context.Context, reg registry, cat catalog, namespace string, demo Demo) error {
	limit := max(demo.CartItems, demo.WishlistItems)
	products, err := cat.ListAll(ctx, limit)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	return reg.Do(ctx, namespace, func(ctx context.Context, s *shopper.Shopper) error {
		if err := signIn(ctx, s.Session, demo); err != nil {
			return err
		}
		for i, p := range products {
			if i < demo.CartItems {
				if err := s.Cart.AddItem(ctx, p); err != nil {
					return fmt.Errorf("add cart item %d: %w", p.ID, err)
				}
			}
			if i < demo.WishlistItems {
				if _, err := s.Wishlist.Add(ctx, p); err != nil {
					return fmt.Errorf("add wishlist item %d: %w", p.ID, err)
				}
			}
		}
		return nil
	})
}

func signIn(ctx context.Context, sess *session.Service, demo Demo) error {
	_, err := sess.SignIn(ctx, demo.Email, "")
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("sign in %s: %w", demo.Email, err)
	}
	if _, err := sess.SignUp(ctx, session.SignUpInput{Email: demo.Email, Password: "demo", Name: demo.Name}); err != nil {
		return fmt.Errorf("sign up %s: %w", demo.Email, err)
	}
	return nil
}

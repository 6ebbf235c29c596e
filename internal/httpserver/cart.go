package httpserver

import (
	"context"
	"net/http"

	"minishop/internal/domain"
	"minishop/internal/shopper"

	"github.com/gin-gonic/gin"
)

type productRef struct {
	ProductID int `json:"productId" binding:"required,gt=0"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *handlers) getCart(c *gin.Context) {
	var resp cartResponse
	ok := h.withShopper(c, func(_ context.Context, s *shopper.Shopper) error {
		resp = toCart(s.Cart)
		return nil
	})
	if ok {
		c.JSON(http.StatusOK, resp)
	}
}

// addCartItem snapshots the product from the catalog before taking the
// namespace lock.
func (h *handlers) addCartItem(c *gin.Context) {
	var in productRef
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "productId must be a positive integer")
		return
	}
	p, err := h.products.Get(c.Request.Context(), in.ProductID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	var resp cartResponse
	ok := h.withShopper(c, func(ctx context.Context, s *shopper.Shopper) error {
		if err := s.Cart.AddItem(ctx, *p); err != nil {
			return err
		}
		resp = toCart(s.Cart)
		return nil
	})
	if ok {
		c.JSON(http.StatusOK, resp)
	}
}

func (h *handlers) setCartQuantity(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}
	var in quantityRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "quantity is required")
		return
	}
	var resp cartResponse
	ok = h.withShopper(c, func(ctx context.Context, s *shopper.Shopper) error {
		if _, found := s.Cart.Line(id); !found {
			return domain.ErrNotFound
		}
		if err := s.Cart.SetQuantity(ctx, id, *in.Quantity); err != nil {
			return err
		}
		resp = toCart(s.Cart)
		return nil
	})
	if ok {
		c.JSON(http.StatusOK, resp)
	}
}

func (h *handlers) removeCartItem(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}
	var resp cartResponse
	ok = h.withShopper(c, func(ctx context.Context, s *shopper.Shopper) error {
		if err := s.Cart.RemoveItem(ctx, id); err != nil {
			return err
		}
		resp = toCart(s.Cart)
		return nil
	})
	if ok {
		c.JSON(http.StatusOK, resp)
	}
}

func (h *handlers) clearCart(c *gin.Context) {
	var resp cartResponse
	ok := h.withShopper(c, func(ctx context.Context, s *shopper.Shopper) error {
		if err := s.Cart.Clear(ctx); err != nil {
			return err
		}
		resp = toCart(s.Cart)
		return nil
	})
	if ok {
		c.JSON(http.StatusOK, resp)
	}
}

package httpserver

import (
	"context"
	"net/http"

	"minishop/internal/shopper"

	"github.com/gin-gonic/gin"
)

func (h *handlers) getWishlist(c *gin.Context) {
	var resp wishlistResponse
	ok := h.withShopper(c, func(_ context.Context, s *shopper.Shopper) error {
		resp = toWishlist(s.Wishlist)
		return nil
	})
	if ok {
		c.JSON(http.StatusOK, resp)
	}
}

func (h *handlers) addWishlistItem(c *gin.Context) {
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
	var (
		added bool
		resp  wishlistResponse
	)
	ok := h.withShopper(c, func(ctx context.Context, s *shopper.Shopper) error {
		var err error
		if added, err = s.Wishlist.Add(ctx, *p); err != nil {
			return err
		}
		resp = toWishlist(s.Wishlist)
		return nil
	})
	if !ok {
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	c.JSON(status, resp)
}

func (h *handlers) wishlistContains(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}
	var liked bool
	ok = h.withShopper(c, func(_ context.Context, s *shopper.Shopper) error {
		liked = s.Wishlist.Contains(id)
		return nil
	})
	if ok {
		c.JSON(http.StatusOK, gin.H{"productId": id, "liked": liked})
	}
}

func (h *handlers) removeWishlistItem(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}
	var resp wishlistResponse
	ok = h.withShopper(c, func(ctx context.Context, s *shopper.Shopper) error {
		if _, err := s.Wishlist.Remove(ctx, id); err != nil {
			return err
		}
		resp = toWishlist(s.Wishlist)
		return nil
	})
	if ok {
		c.JSON(http.StatusOK, resp)
	}
}

func (h *handlers) clearWishlist(c *gin.Context) {
	var resp wishlistResponse
	ok := h.withShopper(c, func(ctx context.Context, s *shopper.Shopper) error {
		if err := s.Wishlist.Clear(ctx); err != nil {
			return err
		}
		resp = toWishlist(s.Wishlist)
		return nil
	})
	if ok {
		c.JSON(http.StatusOK, resp)
	}
}

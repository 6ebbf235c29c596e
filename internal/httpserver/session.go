package httpserver

import (
	"context"
	"errors"
	"net/http"

	"minishop/internal/domain"
	"minishop/internal/service/session"
	"minishop/internal/shopper"

	"github.com/gin-gonic/gin"
)

type signInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password"`
}

// persisted drops listener failures of an identity change that is already
// stored; the next request reopens the stores from storage.
func (h *handlers) persisted(ctx context.Context, err error) error {
	if errors.Is(err, session.ErrListenerFailed) {
		h.logger.Errorf(ctx, err, "session: identity changed but stores were not rekeyed")
		return nil
	}
	return err
}

func (h *handlers) getSession(c *gin.Context) {
	var resp sessionResponse
	ok := h.withShopper(c, func(_ context.Context, s *shopper.Shopper) error {
		resp = sessionResponse{Authenticated: s.Session.Authenticated(), Identity: toIdentity(s.Session.Current())}
		return nil
	})
	if ok {
		c.JSON(http.StatusOK, resp)
	}
}

func (h *handlers) signUp(c *gin.Context) {
	var in session.SignUpInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	var identity *domain.Identity
	ok := h.withShopper(c, func(ctx context.Context, s *shopper.Shopper) error {
		var err error
		identity, err = s.Session.SignUp(ctx, in)
		return h.persisted(ctx, err)
	})
	if ok {
		c.JSON(http.StatusCreated, sessionResponse{Authenticated: true, Identity: toIdentity(identity)})
	}
}

func (h *handlers) signIn(c *gin.Context) {
	var in signInRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "email is required")
		return
	}
	var identity *domain.Identity
	ok := h.withShopper(c, func(ctx context.Context, s *shopper.Shopper) error {
		var err error
		identity, err = s.Session.SignIn(ctx, in.Email, in.Password)
		return h.persisted(ctx, err)
	})
	if ok {
		c.JSON(http.StatusOK, sessionResponse{Authenticated: true, Identity: toIdentity(identity)})
	}
}

func (h *handlers) signOut(c *gin.Context) {
	ok := h.withShopper(c, func(ctx context.Context, s *shopper.Shopper) error {
		return h.persisted(ctx, s.Session.SignOut(ctx))
	})
	if ok {
		c.JSON(http.StatusOK, sessionResponse{})
	}
}

func (h *handlers) updateProfile(c *gin.Context) {
	var in session.ProfileUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	var identity *domain.Identity
	ok := h.withShopper(c, func(ctx context.Context, s *shopper.Shopper) error {
		var err error
		identity, err = s.Session.UpdateProfile(ctx, in)
		return err
	})
	if ok {
		c.JSON(http.StatusOK, sessionResponse{Authenticated: true, Identity: toIdentity(identity)})
	}
}

func (h *handlers) listOrders(c *gin.Context) {
	var orders []orderResponse
	ok := h.withShopper(c, func(_ context.Context, s *shopper.Shopper) error {
		identity := s.Session.Current()
		if identity == nil {
			return domain.ErrNotAuthenticated
		}
		orders = toOrders(identity.Orders)
		return nil
	})
	if ok {
		c.JSON(http.StatusOK, gin.H{"orders": orders})
	}
}

func (h *handlers) checkout(c *gin.Context) {
	var order *domain.Order
	ok := h.withShopper(c, func(ctx context.Context, s *shopper.Shopper) error {
		var err error
		order, err = s.Checkout(ctx)
		return err
	})
	if ok {
		c.JSON(http.StatusCreated, toOrder(*order))
	}
}

package httpserver

import (
	"context"
	"net/http"

	"minishop/internal/shopper"

	"github.com/gin-gonic/gin"
)

func (h *handlers) issueDevice(c *gin.Context) {
	grant, err := h.devices.Issue(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, grant)
}

// withShopper runs fn on the caller's namespace and writes any error.
func (h *handlers) withShopper(c *gin.Context, fn func(context.Context, *shopper.Shopper) error) bool {
	ctx := c.Request.Context()
	if err := h.shoppers.Do(ctx, namespaceFrom(ctx), fn); err != nil {
		writeError(c, h.logger, err)
		return false
	}
	return true
}

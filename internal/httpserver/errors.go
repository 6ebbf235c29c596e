package httpserver

import (
	"context"
	"errors"
	"net/http"

	"minishop/internal/domain"
	"minishop/internal/logger"

	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func abortError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeError maps service errors to a status and error code. Unknown errors
// are logged and reported as 500 without detail.
func writeError(c *gin.Context, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		abortError(c, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, domain.ErrNotAuthenticated):
		abortError(c, http.StatusUnauthorized, "not_authenticated", "sign in required")
	case errors.Is(err, domain.ErrNotFound):
		abortError(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrDuplicateEmail):
		abortError(c, http.StatusConflict, "duplicate_email", domain.ErrDuplicateEmail.Error())
	case errors.Is(err, domain.ErrEmptyCart):
		abortError(c, http.StatusUnprocessableEntity, "empty_cart", domain.ErrEmptyCart.Error())
	case errors.Is(err, domain.ErrNetwork):
		log.Warnf(c.Request.Context(), "catalog unavailable: %v", err)
		abortError(c, http.StatusBadGateway, "catalog_unavailable", "product catalog is unavailable")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		abortError(c, http.StatusServiceUnavailable, "canceled", "request canceled")
	default:
		log.Error(c.Request.Context(), "request failed", err)
		abortError(c, http.StatusInternalServerError, "internal", "internal error")
	}
}

func badRequest(c *gin.Context, message string) {
	abortError(c, http.StatusBadRequest, "invalid_input", message)
}

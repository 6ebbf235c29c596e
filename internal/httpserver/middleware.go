package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"minishop/internal/logger"
	"minishop/internal/metrics"
	"minishop/internal/service/device"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

type ctxKey string

const namespaceCtxKey ctxKey = "namespace"

func requestID(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(requestIDHeader, reqID)
		c.Request = c.Request.WithContext(log.WithRequestID(c.Request.Context(), reqID))
		c.Next()
	}
}

func requestLog(log *logger.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		log.Request(c.Request.Context(), c.Request.Method, c.Request.URL.Path, status, time.Since(start))
		m.IncHTTP(c.Request.Method, c.FullPath(), status)
	}
}

// deviceAuth resolves the bearer device token into the request's namespace.
func deviceAuth(devices deviceService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortError(c, http.StatusUnauthorized, "missing_token", "device token required")
			return
		}
		namespace, err := devices.Lookup(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, device.ErrInvalidToken) {
				abortError(c, http.StatusUnauthorized, "invalid_token", "device token is invalid or expired")
				return
			}
			log.Error(c.Request.Context(), "device lookup failed", err)
			abortError(c, http.StatusInternalServerError, "internal", "internal error")
			return
		}
		ctx := log.WithNamespace(c.Request.Context(), namespace)
		ctx = context.WithValue(ctx, namespaceCtxKey, namespace)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func namespaceFrom(ctx context.Context) string {
	ns, _ := ctx.Value(namespaceCtxKey).(string)
	return ns
}

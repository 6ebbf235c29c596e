package httpserver

import (
	"context"
	"net/http"
	"time"

	"minishop/internal/config"
	"minishop/internal/logger"

	"github.com/gin-gonic/gin"
)

// Server wraps the HTTP server setup.
type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
}

// New builds a Server with all routes.
func New(cfg config.HTTPConfig, deps Deps) (*Server, error) {
	router, err := buildRouter(cfg, deps)
	if err != nil {
		return nil, err
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{
		httpServer: httpSrv,
		logger:     deps.logger(),
	}, nil
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.logger.Infof(context.Background(), "starting http server on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type pinger interface {
	Ping(ctx context.Context) error
}

func readyHandler(store pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "storage not configured"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "storage not reachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

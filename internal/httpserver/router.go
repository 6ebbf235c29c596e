package httpserver

import (
	"context"
	"fmt"
	"slices"
	"time"

	"minishop/internal/config"
	"minishop/internal/domain"
	"minishop/internal/logger"
	"minishop/internal/metrics"
	"minishop/internal/service/device"
	"minishop/internal/service/product"
	"minishop/internal/shopper"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type deviceService interface {
	Issue(ctx context.Context) (device.Grant, error)
	Lookup(ctx context.Context, token string) (string, error)
}

type productService interface {
	List(ctx context.Context, category string, cfg product.ViewConfig) ([]domain.Product, error)
	Search(ctx context.Context, query string, cfg product.ViewConfig) (*product.SearchResult, error)
	Get(ctx context.Context, id int) (*domain.Product, error)
	Related(ctx context.Context, id int) ([]domain.Product, error)
	Deals(ctx context.Context) ([]domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
}

type shopperRegistry interface {
	Do(ctx context.Context, namespace string, fn func(context.Context, *shopper.Shopper) error) error
	Ping(ctx context.Context) error
}

// Deps are the services behind the routes.
type Deps struct {
	Devices  deviceService
	Products productService
	Shoppers shopperRegistry
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

func (d Deps) logger() *logger.Logger {
	if d.Logger == nil {
		return logger.Nop()
	}
	return d.Logger
}

// buildRouter wires routes for the API.
func buildRouter(cfg config.HTTPConfig, deps Deps) (*gin.Engine, error) {
	if deps.Devices == nil || deps.Products == nil || deps.Shoppers == nil {
		return nil, fmt.Errorf("httpserver: devices, products and shoppers are required")
	}
	log := deps.logger()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestID(log), requestLog(log, deps.Metrics), gin.Recovery(), corsMiddleware(cfg.CORSOrigins))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Shoppers))
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	h := &handlers{devices: deps.Devices, products: deps.Products, shoppers: deps.Shoppers, logger: log}

	router.POST("/devices", h.issueDevice)

	router.GET("/products", h.listProducts)
	router.GET("/products/search", h.searchProducts)
	router.GET("/products/categories", h.listCategories)
	router.GET("/products/category/:category", h.listProducts)
	router.GET("/products/:id", h.getProduct)
	router.GET("/products/:id/related", h.relatedProducts)
	router.GET("/deals", h.deals)

	shop := router.Group("/", deviceAuth(deps.Devices, log))
	shop.GET("/session", h.getSession)
	shop.POST("/session/signup", h.signUp)
	shop.POST("/session/signin", h.signIn)
	shop.POST("/session/signout", h.signOut)
	shop.PATCH("/session/profile", h.updateProfile)
	shop.GET("/orders", h.listOrders)
	shop.POST("/checkout", h.checkout)

	shop.GET("/cart", h.getCart)
	shop.POST("/cart/items", h.addCartItem)
	shop.PUT("/cart/items/:id", h.setCartQuantity)
	shop.DELETE("/cart/items/:id", h.removeCartItem)
	shop.DELETE("/cart", h.clearCart)

	shop.GET("/wishlist", h.getWishlist)
	shop.POST("/wishlist/items", h.addWishlistItem)
	shop.GET("/wishlist/items/:id", h.wishlistContains)
	shop.DELETE("/wishlist/items/:id", h.removeWishlistItem)
	shop.DELETE("/wishlist", h.clearWishlist)

	return router, nil
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        5 * time.Minute,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

type handlers struct {
	devices  deviceService
	products productService
	shoppers shopperRegistry
	logger   *logger.Logger
}

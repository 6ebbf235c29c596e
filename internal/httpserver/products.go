package httpserver

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"minishop/internal/domain"
	"minishop/internal/service/product"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func (h *handlers) listProducts(c *gin.Context) {
	cfg, err := parseViewConfig(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	products, err := h.products.List(c.Request.Context(), strings.TrimSpace(c.Param("category")), cfg)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toProductList(products))
}

func (h *handlers) searchProducts(c *gin.Context) {
	cfg, err := parseViewConfig(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		badRequest(c, "q is required")
		return
	}
	res, err := h.products.Search(c.Request.Context(), query, cfg)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if res.Products == nil {
		res.Products = []domain.Product{}
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) listCategories(c *gin.Context) {
	categories, err := h.products.Categories(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *handlers) getProduct(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}
	p, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) relatedProducts(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}
	products, err := h.products.Related(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toProductList(products))
}

func (h *handlers) deals(c *gin.Context) {
	products, err := h.products.Deals(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toProductList(products))
}

// parseViewConfig reads minPrice, maxPrice, rating, category and sort on top
// of the default view. Unknown sort keys fall back to the default order.
func parseViewConfig(c *gin.Context) (product.ViewConfig, error) {
	cfg := product.DefaultViewConfig()
	if v := c.Query("minPrice"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return cfg, fmt.Errorf("minPrice: %q is not a number", v)
		}
		cfg.PriceRange.Min = d
	}
	if v := c.Query("maxPrice"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return cfg, fmt.Errorf("maxPrice: %q is not a number", v)
		}
		cfg.PriceRange.Max = d
	}
	if cfg.PriceRange.Min.GreaterThan(cfg.PriceRange.Max) {
		return cfg, fmt.Errorf("minPrice must not exceed maxPrice")
	}
	if v := c.Query("rating"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 5 {
			return cfg, fmt.Errorf("rating: must be an integer between 0 and 5")
		}
		cfg.Rating = n
	}
	for _, raw := range c.QueryArray("category") {
		for _, cat := range strings.Split(raw, ",") {
			if cat = strings.TrimSpace(cat); cat != "" && !slices.Contains(cfg.Categories, cat) {
				cfg.Categories = append(cfg.Categories, cat)
			}
		}
	}
	cfg.Sort = product.ParseSortKey(c.Query("sort"))
	return cfg, nil
}

func productIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		badRequest(c, "product id must be a positive integer")
		return 0, false
	}
	return id, true
}

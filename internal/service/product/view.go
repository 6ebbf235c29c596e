package product

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"minishop/internal/domain"

	"github.com/shopspring/decimal"
)

type SortKey string

const (
	SortDefault   SortKey = "default"
	SortRelevance SortKey = "relevance"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortRating    SortKey = "rating"
	SortDiscount  SortKey = "discount"
)

// ParseSortKey maps unknown values to SortDefault.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortRelevance, SortPriceLow, SortPriceHigh, SortRating, SortDiscount:
		return k
	default:
		return SortDefault
	}
}

type PriceRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// ViewConfig describes how a product list is filtered and ordered.
type ViewConfig struct {
	PriceRange PriceRange
	Rating     int
	Categories []string
	Sort       SortKey
}

// DefaultViewConfig matches the storefront's initial filter panel.
func DefaultViewConfig() ViewConfig {
	return ViewConfig{
		PriceRange: PriceRange{Min: decimal.Zero, Max: decimal.NewFromInt(2000)},
		Sort:       SortDefault,
	}
}

// Derive filters by price, rounded rating and category, in that order, then
// stable-sorts by cfg.Sort. The input slice is left untouched.
func Derive(products []domain.Product, cfg ViewConfig) []domain.Product {
	var categories map[string]struct{}
	if len(cfg.Categories) > 0 {
		categories = make(map[string]struct{}, len(cfg.Categories))
		for _, c := range cfg.Categories {
			categories[c] = struct{}{}
		}
	}

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.Price.LessThan(cfg.PriceRange.Min) || p.Price.GreaterThan(cfg.PriceRange.Max) {
			continue
		}
		if cfg.Rating > 0 && roundRating(p.Rating) < cfg.Rating {
			continue
		}
		if categories != nil {
			if _, ok := categories[p.Category]; !ok {
				continue
			}
		}
		out = append(out, p)
	}

	switch cfg.Sort {
	case SortPriceLow:
		slices.SortStableFunc(out, func(a, b domain.Product) int { return a.Price.Cmp(b.Price) })
	case SortPriceHigh:
		slices.SortStableFunc(out, func(a, b domain.Product) int { return b.Price.Cmp(a.Price) })
	case SortRating:
		slices.SortStableFunc(out, func(a, b domain.Product) int { return cmp.Compare(b.Rating, a.Rating) })
	case SortDiscount:
		slices.SortStableFunc(out, byDiscountDesc)
	}
	return out
}

// roundRating rounds half up, like the storefront's star display.
func roundRating(r float64) int {
	return int(math.Floor(r + 0.5))
}

func byDiscountDesc(a, b domain.Product) int {
	return cmp.Compare(b.DiscountPercentage, a.DiscountPercentage)
}

const (
	dealThreshold = 15.0
	relatedLimit  = 4
)

// Deals keeps products discounted by more than 15%, biggest discount first.
func Deals(products []domain.Product) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.DiscountPercentage > dealThreshold {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, byDiscountDesc)
	return out
}

// Related returns up to four products of the same category, excluding current.
func Related(categoryProducts []domain.Product, current domain.Product) []domain.Product {
	out := make([]domain.Product, 0, relatedLimit)
	for _, p := range categoryProducts {
		if p.ID == current.ID {
			continue
		}
		out = append(out, p)
		if len(out) == relatedLimit {
			break
		}
	}
	return out
}

// Facets lists the distinct categories of products in first-seen order.
func Facets(products []domain.Product) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, p := range products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

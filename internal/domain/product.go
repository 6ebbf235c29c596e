package domain

import "github.com/shopspring/decimal"

// Product mirrors the remote catalog entity. It is never mutated locally; carts
// and wishlists keep snapshots of it.
type Product struct {
	ID                 int             `json:"id"`
	Title              string          `json:"title"`
	Description        string          `json:"description,omitempty"`
	Brand              string          `json:"brand,omitempty"`
	Category           string          `json:"category"`
	Price              decimal.Decimal `json:"price"`
	DiscountPercentage float64         `json:"discountPercentage"`
	Rating             float64         `json:"rating"`
	Stock              int             `json:"stock"`
	Thumbnail          string          `json:"thumbnail,omitempty"`
	Images             []string        `json:"images,omitempty"`
}

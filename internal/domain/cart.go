package domain

import "github.com/shopspring/decimal"

// CartLine is a product snapshot with a quantity of at least one.
type CartLine struct {
	Product
	Quantity int `json:"quantity"`
}

// Subtotal returns price × quantity for the line.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// WishlistEntry is a liked product snapshot.
type WishlistEntry struct {
	Product
}

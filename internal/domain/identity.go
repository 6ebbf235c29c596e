package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusPending    OrderStatus = "pending"
)

// Order is created at checkout and never changed afterwards.
type Order struct {
	ID     string          `json:"id"`
	Items  []CartLine      `json:"items"`
	Total  decimal.Decimal `json:"total"`
	Status OrderStatus     `json:"status"`
	Date   time.Time       `json:"date"`
}

// ItemCount sums the quantities of the ordered lines.
func (o Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// Identity is a registered account in the simulated user directory.
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Orders    []Order   `json:"orders"`
}

// Clone returns a copy whose order list can be appended to without touching i.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	c.Orders = append([]Order(nil), i.Orders...)
	return &c
}

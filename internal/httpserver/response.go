package httpserver

import (
	"time"

	"minishop/internal/domain"
	"minishop/internal/service/cart"
	"minishop/internal/service/wishlist"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type moneyValue struct {
	CurrencyCode   string          `json:"currencyCode"`
	CentAmount     int64           `json:"centAmount"`
	FractionDigits int             `json:"fractionDigits"`
	Amount         decimal.Decimal `json:"amount"`
}

func toMoney(amount decimal.Decimal) moneyValue {
	scale, _ := currency.Standard.Rounding(domain.Currency)
	rounded := amount.Round(int32(scale))
	return moneyValue{
		CurrencyCode:   domain.Currency.String(),
		CentAmount:     rounded.Shift(int32(scale)).IntPart(),
		FractionDigits: scale,
		Amount:         rounded,
	}
}

type lineResponse struct {
	domain.Product
	Quantity int        `json:"quantity"`
	Subtotal moneyValue `json:"subtotal"`
}

type cartResponse struct {
	Key   string         `json:"key"`
	Items []lineResponse `json:"items"`
	Count int            `json:"count"`
	Total moneyValue     `json:"total"`
}

func toCart(c *cart.Service) cartResponse {
	lines := c.Lines()
	items := make([]lineResponse, 0, len(lines))
	for _, l := range lines {
		items = append(items, lineResponse{Product: l.Product, Quantity: l.Quantity, Subtotal: toMoney(l.Subtotal())})
	}
	return cartResponse{
		Key:   string(c.Key()),
		Items: items,
		Count: c.Count(),
		Total: toMoney(c.Total()),
	}
}

type wishlistResponse struct {
	Key   string           `json:"key"`
	Items []domain.Product `json:"items"`
	Count int              `json:"count"`
}

func toWishlist(w *wishlist.Service) wishlistResponse {
	entries := w.Entries()
	items := make([]domain.Product, 0, len(entries))
	for _, e := range entries {
		items = append(items, e.Product)
	}
	return wishlistResponse{Key: string(w.Key()), Items: items, Count: w.Count()}
}

type orderResponse struct {
	ID        string             `json:"id"`
	Items     []domain.CartLine  `json:"items"`
	ItemCount int                `json:"itemCount"`
	Total     moneyValue         `json:"total"`
	Status    domain.OrderStatus `json:"status"`
	Date      time.Time          `json:"date"`
}

func toOrder(o domain.Order) orderResponse {
	items := o.Items
	if items == nil {
		items = []domain.CartLine{}
	}
	return orderResponse{
		ID:        o.ID,
		Items:     items,
		ItemCount: o.ItemCount(),
		Total:     toMoney(o.Total),
		Status:    o.Status,
		Date:      o.Date,
	}
}

func toOrders(orders []domain.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrder(o))
	}
	return out
}

// identityResponse always reports credentialsVerified=false: sign-in accepts
// any password.
type identityResponse struct {
	ID                  string          `json:"id"`
	Email               string          `json:"email"`
	Name                string          `json:"name"`
	CreatedAt           time.Time       `json:"createdAt"`
	Orders              []orderResponse `json:"orders"`
	CredentialsVerified bool            `json:"credentialsVerified"`
}

func toIdentity(i *domain.Identity) *identityResponse {
	if i == nil {
		return nil
	}
	return &identityResponse{
		ID:        i.ID,
		Email:     i.Email,
		Name:      i.Name,
		CreatedAt: i.CreatedAt,
		Orders:    toOrders(i.Orders),
	}
}

type sessionResponse struct {
	Authenticated bool              `json:"authenticated"`
	Identity      *identityResponse `json:"identity"`
}

type productListResponse struct {
	Products []domain.Product `json:"products"`
	Total    int              `json:"total"`
}

func toProductList(products []domain.Product) productListResponse {
	if products == nil {
		products = []domain.Product{}
	}
	return productListResponse{Products: products, Total: len(products)}
}

package domain

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Currency is the single currency the storefront prices in.
var Currency = currency.USD

func init() {
	// Prices travel as JSON numbers, the way the catalog serves them.
	decimal.MarshalJSONWithoutQuotes = true
}

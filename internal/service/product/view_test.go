package product

import (
	"slices"
	"testing"

	"minishop/internal/domain"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func item(id int, price float64, rating float64, category string) domain.Product {
	return domain.Product{
		ID:       id,
		Title:    "p",
		Category: category,
		Price:    decimal.NewFromFloat(price),
		Rating:   rating,
	}
}

func ids(products []domain.Product) []int {
	out := make([]int, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func fakeProducts(t *testing.T, n int) []domain.Product {
	t.Helper()
	f := gofakeit.New(42)
	categories := []string{"beauty", "laptops", "groceries", "furniture"}
	out := make([]domain.Product, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, domain.Product{
			ID:                 i,
			Title:              f.ProductName(),
			Category:           f.RandomString(categories),
			Price:              decimal.NewFromFloat(f.Float64Range(1, 3000)).Round(2),
			Rating:             f.Float64Range(0, 5),
			DiscountPercentage: f.Float64Range(0, 30),
		})
	}
	return out
}

func TestDeriveKeepsOnlyProductsInPriceRange(t *testing.T) {
	products := []domain.Product{
		item(1, 5, 3, "a"),
		item(2, 50, 5, "b"),
	}
	cfg := ViewConfig{
		PriceRange: PriceRange{Min: decimal.Zero, Max: decimal.NewFromInt(10)},
		Sort:       SortDefault,
	}

	got := Derive(products, cfg)
	assert.Equal(t, []int{1}, ids(got))
}

func TestDerivePriceBoundsAreInclusive(t *testing.T) {
	products := []domain.Product{item(1, 10, 0, "a"), item(2, 20, 0, "a"), item(3, 20.01, 0, "a")}
	cfg := DefaultViewConfig()
	cfg.PriceRange = PriceRange{Min: decimal.NewFromInt(10), Max: decimal.NewFromInt(20)}

	assert.Equal(t, []int{1, 2}, ids(Derive(products, cfg)))
}

func TestDeriveRatingUsesRoundedValue(t *testing.T) {
	products := []domain.Product{
		item(1, 1, 3.49, "a"),
		item(2, 1, 3.5, "a"),
		item(3, 1, 4.2, "a"),
	}
	cfg := DefaultViewConfig()
	cfg.Rating = 4

	assert.Equal(t, []int{2, 3}, ids(Derive(products, cfg)))
}

func TestRoundRatingRoundsHalfUp(t *testing.T) {
	for r, want := range map[float64]int{0: 0, 0.5: 1, 2.5: 3, 3.49: 3, 4.5: 5, 4.99: 5} {
		assert.Equal(t, want, roundRating(r), "rating %v", r)
	}
}

func TestDeriveCategoryFilter(t *testing.T) {
	products := []domain.Product{item(1, 1, 0, "a"), item(2, 1, 0, "b"), item(3, 1, 0, "c")}
	cfg := DefaultViewConfig()
	cfg.Categories = []string{"c", "a"}

	assert.Equal(t, []int{1, 3}, ids(Derive(products, cfg)))
}

func TestDeriveSortKeys(t *testing.T) {
	products := []domain.Product{
		{ID: 1, Price: decimal.NewFromInt(30), Rating: 4.1, DiscountPercentage: 5},
		{ID: 2, Price: decimal.NewFromInt(10), Rating: 4.8, DiscountPercentage: 20},
		{ID: 3, Price: decimal.NewFromInt(20), Rating: 4.1, DiscountPercentage: 12},
	}
	tests := []struct {
		sort SortKey
		want []int
	}{
		{SortDefault, []int{1, 2, 3}},
		{SortRelevance, []int{1, 2, 3}},
		{SortPriceLow, []int{2, 3, 1}},
		{SortPriceHigh, []int{1, 3, 2}},
		{SortRating, []int{2, 1, 3}},
		{SortDiscount, []int{2, 3, 1}},
	}
	for _, tc := range tests {
		t.Run(string(tc.sort), func(t *testing.T) {
			cfg := DefaultViewConfig()
			cfg.Sort = tc.sort
			assert.Equal(t, tc.want, ids(Derive(products, cfg)))
		})
	}
}

func TestDerivePriceLowKeepsFilteredLength(t *testing.T) {
	products := fakeProducts(t, 60)
	cfg := DefaultViewConfig()
	cfg.Rating = 2
	cfg.Categories = []string{"laptops", "beauty"}

	filteredOnly := Derive(products, cfg)
	cfg.Sort = SortPriceLow
	sorted := Derive(products, cfg)

	require.Len(t, sorted, len(filteredOnly))
	assert.True(t, slices.IsSortedFunc(sorted, func(a, b domain.Product) int { return a.Price.Cmp(b.Price) }))
	assert.ElementsMatch(t, ids(filteredOnly), ids(sorted))
}

func TestDeriveDoesNotMutateInput(t *testing.T) {
	products := fakeProducts(t, 20)
	before := slices.Clone(products)

	cfg := DefaultViewConfig()
	cfg.Sort = SortPriceHigh
	_ = Derive(products, cfg)

	if diff := cmp.Diff(before, products); diff != "" {
		t.Fatalf("input changed (-before +after):\n%s", diff)
	}
}

func TestParseSortKey(t *testing.T) {
	assert.Equal(t, SortPriceLow, ParseSortKey("price-low"))
	assert.Equal(t, SortDiscount, ParseSortKey(" Discount "))
	assert.Equal(t, SortDefault, ParseSortKey("cheapest"))
	assert.Equal(t, SortDefault, ParseSortKey(""))
}

func TestDeals(t *testing.T) {
	products := []domain.Product{
		{ID: 1, DiscountPercentage: 15},
		{ID: 2, DiscountPercentage: 16.5},
		{ID: 3, DiscountPercentage: 3},
		{ID: 4, DiscountPercentage: 22},
	}
	assert.Equal(t, []int{4, 2}, ids(Deals(products)))
}

func TestRelated(t *testing.T) {
	siblings := []domain.Product{
		item(1, 1, 0, "a"), item(2, 1, 0, "a"), item(3, 1, 0, "a"),
		item(4, 1, 0, "a"), item(5, 1, 0, "a"), item(6, 1, 0, "a"),
	}
	assert.Equal(t, []int{1, 2, 4, 5}, ids(Related(siblings, siblings[2])))
	assert.Empty(t, Related(siblings[:1], siblings[0]))
}

func TestFacets(t *testing.T) {
	products := []domain.Product{item(1, 1, 0, "b"), item(2, 1, 0, "a"), item(3, 1, 0, "b")}
	assert.Equal(t, []string{"b", "a"}, Facets(products))
	assert.Empty(t, Facets(nil))
}

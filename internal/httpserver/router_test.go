package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"minishop/internal/config"
	"minishop/internal/domain"
	"minishop/internal/keystore"
	"minishop/internal/metrics"
	"minishop/internal/repository/kv"
	"minishop/internal/service/device"
	"minishop/internal/service/product"
	"minishop/internal/shopper"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProductService struct {
	products []domain.Product
	err      error

	lastCfg      product.ViewConfig
	lastCategory string
}

func (s *stubProductService) List(_ context.Context, category string, cfg product.ViewConfig) ([]domain.Product, error) {
	s.lastCategory = category
	s.lastCfg = cfg
	if s.err != nil {
		return nil, s.err
	}
	return product.Derive(s.products, cfg), nil
}

func (s *stubProductService) Search(_ context.Context, query string, cfg product.ViewConfig) (*product.SearchResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &product.SearchResult{Query: query, Products: product.Derive(s.products, cfg), Facets: product.Facets(s.products)}, nil
}

func (s *stubProductService) Get(_ context.Context, id int) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, p := range s.products {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubProductService) Related(context.Context, int) ([]domain.Product, error) {
	return nil, s.err
}

func (s *stubProductService) Deals(context.Context) ([]domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return product.Deals(s.products), nil
}

func (s *stubProductService) Categories(context.Context) ([]string, error) {
	return []string{"beauty", "tools"}, s.err
}

// cartLockedRepo refuses cart writes while locked is set and reads of signed
// in carts while unreadable is set.
type cartLockedRepo struct {
	kv.Repository
	locked     atomic.Bool
	unreadable atomic.Bool
}

func (r *cartLockedRepo) Get(ctx context.Context, namespace, key string) (string, error) {
	if r.unreadable.Load() && strings.HasPrefix(key, "cart_") && key != "cart_guest" {
		return "", errors.New("cart storage unavailable")
	}
	return r.Repository.Get(ctx, namespace, key)
}

func (r *cartLockedRepo) Set(ctx context.Context, namespace, key, value string) error {
	if r.locked.Load() && strings.HasPrefix(key, "cart_") {
		return errors.New("cart storage unavailable")
	}
	return r.Repository.Set(ctx, namespace, key, value)
}

type testServer struct {
	router   *gin.Engine
	products *stubProductService
	registry *prometheus.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithRepo(t, kv.NewMemory())
}

func newTestServerWithRepo(t *testing.T, repo kv.Repository) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	devices, err := device.New(config.DeviceConfig{Secret: "test", Issuer: "test", TTL: time.Hour})
	require.NoError(t, err)
	products := &stubProductService{products: []domain.Product{
		{ID: 1, Title: "Mascara", Category: "beauty", Price: decimal.NewFromInt(10), Rating: 4.6, DiscountPercentage: 18},
		{ID: 2, Title: "Hammer", Category: "tools", Price: decimal.RequireFromString("24.50"), Rating: 3.2, DiscountPercentage: 4},
	}}
	reg := prometheus.NewRegistry()
	router, err := buildRouter(config.HTTPConfig{CORSOrigins: []string{"*"}}, Deps{
		Devices:  devices,
		Products: products,
		Shoppers: shopper.NewRegistry(keystore.New(repo, nil)),
		Metrics:  metrics.New(reg),
		Gatherer: reg,
	})
	require.NoError(t, err)
	return &testServer{router: router, products: products, registry: reg}
}

func (ts *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) device(t *testing.T) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/devices", "", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var grant device.Grant
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grant))
	require.NotEmpty(t, grant.Token)
	return grant.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[errorBody](t, rec).Error.Code
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestShopperRoutesRequireDeviceToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/cart", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing_token", errorCode(t, rec))

	rec = ts.do(t, http.MethodGet, "/cart", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_token", errorCode(t, rec))
}

func TestListProductsAppliesViewConfig(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/products?maxPrice=20&category=beauty,tools&sort=price-high", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[productListResponse](t, rec)
	require.Len(t, resp.Products, 1)
	assert.Equal(t, 1, resp.Products[0].ID)
	assert.Equal(t, []string{"beauty", "tools"}, ts.products.lastCfg.Categories)
	assert.Equal(t, product.SortPriceHigh, ts.products.lastCfg.Sort)

	rec = ts.do(t, http.MethodGet, "/products/category/tools?sort=bogus", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tools", ts.products.lastCategory)
	assert.Equal(t, product.SortDefault, ts.products.lastCfg.Sort)

	rec = ts.do(t, http.MethodGet, "/products?minPrice=abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = ts.do(t, http.MethodGet, "/products?rating=9", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductErrorsMapToStatus(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/products/99", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(t, http.MethodGet, "/products/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.products.err = domain.ErrNetwork
	rec = ts.do(t, http.MethodGet, "/deals", "", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "catalog_unavailable", errorCode(t, rec))
}

func TestSearchReturnsFacets(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/products/search?q=a&rating=4", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[product.SearchResult](t, rec)
	assert.Equal(t, []string{"beauty", "tools"}, resp.Facets)
	require.Len(t, resp.Products, 1)

	rec = ts.do(t, http.MethodGet, "/products/search", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartFlow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.device(t)

	rec := ts.do(t, http.MethodPost, "/cart/items", token, `{"productId":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = ts.do(t, http.MethodPost, "/cart/items", token, `{"productId":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decode[cartResponse](t, rec)
	assert.Equal(t, "cart_guest", cart.Key)
	assert.Equal(t, 2, cart.Count)
	assert.Equal(t, int64(2000), cart.Total.CentAmount)
	assert.Equal(t, "USD", cart.Total.CurrencyCode)

	rec = ts.do(t, http.MethodPut, "/cart/items/1", token, `{"quantity":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, decode[cartResponse](t, rec).Count)

	rec = ts.do(t, http.MethodPut, "/cart/items/2", token, `{"quantity":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPut, "/cart/items/1", token, `{"quantity":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[cartResponse](t, rec).Count)

	rec = ts.do(t, http.MethodPost, "/cart/items", token, `{"productId":99}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(t, http.MethodPost, "/cart/items", token, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	other := ts.device(t)
	rec = ts.do(t, http.MethodGet, "/cart", other, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[cartResponse](t, rec).Count)
}

func TestWishlistFlow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.device(t)

	rec := ts.do(t, http.MethodPost, "/wishlist/items", token, `{"productId":2}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = ts.do(t, http.MethodPost, "/wishlist/items", token, `{"productId":2}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[wishlistResponse](t, rec).Count)

	rec = ts.do(t, http.MethodGet, "/wishlist/items/2", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["liked"])

	rec = ts.do(t, http.MethodDelete, "/wishlist/items/1", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[wishlistResponse](t, rec).Count)

	rec = ts.do(t, http.MethodDelete, "/wishlist", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[wishlistResponse](t, rec).Count)
}

func TestSessionAndCheckoutFlow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.device(t)

	rec := ts.do(t, http.MethodPost, "/checkout", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "not_authenticated", errorCode(t, rec))

	rec = ts.do(t, http.MethodPost, "/session/signup", token, `{"email":"a@x.com","password":"pw","name":"A"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sess := decode[sessionResponse](t, rec)
	require.NotNil(t, sess.Identity)
	assert.False(t, sess.Identity.CredentialsVerified)
	assert.Contains(t, rec.Body.String(), `"credentialsVerified":false`)

	rec = ts.do(t, http.MethodPost, "/session/signup", token, `{"email":"a@x.com","password":"pw2","name":"B"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = ts.do(t, http.MethodPost, "/session/signup", token, `{"email":"nope","password":"pw","name":"B"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/checkout", token, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	ts.do(t, http.MethodPost, "/cart/items", token, `{"productId":2}`)
	rec = ts.do(t, http.MethodPost, "/checkout", token, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[orderResponse](t, rec)
	assert.Equal(t, domain.OrderStatusProcessing, order.Status)
	assert.Equal(t, int64(2450), order.Total.CentAmount)
	assert.Equal(t, 1, order.ItemCount)

	rec = ts.do(t, http.MethodGet, "/orders", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), order.ID)

	rec = ts.do(t, http.MethodPatch, "/session/profile", token, `{"name":"Ann"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ann", decode[sessionResponse](t, rec).Identity.Name)

	rec = ts.do(t, http.MethodPost, "/session/signout", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodGet, "/orders", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, "/session/signin", token, `{"email":"missing@x.com","password":"pw"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(t, http.MethodPost, "/session/signin", token, `{"email":"A@x.com","password":"whatever"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/session", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	sess = decode[sessionResponse](t, rec)
	assert.True(t, sess.Authenticated)
	require.Len(t, sess.Identity.Orders, 1)
}

func TestCheckoutFailureLeavesNoOrder(t *testing.T) {
	repo := &cartLockedRepo{Repository: kv.NewMemory()}
	ts := newTestServerWithRepo(t, repo)
	token := ts.device(t)

	rec := ts.do(t, http.MethodPost, "/session/signup", token, `{"email":"a@x.com","password":"pw","name":"A"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = ts.do(t, http.MethodPost, "/cart/items", token, `{"productId":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	repo.locked.Store(true)
	rec = ts.do(t, http.MethodPost, "/checkout", token, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	repo.locked.Store(false)

	rec = ts.do(t, http.MethodGet, "/orders", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[struct {
		Orders []orderResponse `json:"orders"`
	}](t, rec).Orders)
	rec = ts.do(t, http.MethodGet, "/cart", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[cartResponse](t, rec).Count)

	rec = ts.do(t, http.MethodPost, "/checkout", token, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = ts.do(t, http.MethodGet, "/orders", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[struct {
		Orders []orderResponse `json:"orders"`
	}](t, rec).Orders, 1)
}

func TestSignUpSucceedsWhenStoresCannotRekey(t *testing.T) {
	repo := &cartLockedRepo{Repository: kv.NewMemory()}
	ts := newTestServerWithRepo(t, repo)
	token := ts.device(t)

	repo.unreadable.Store(true)
	rec := ts.do(t, http.MethodPost, "/session/signup", token, `{"email":"a@x.com","password":"pw","name":"A"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	repo.unreadable.Store(false)

	rec = ts.do(t, http.MethodGet, "/session", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[sessionResponse](t, rec).Authenticated)
	rec = ts.do(t, http.MethodGet, "/cart", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, "cart_guest", decode[cartResponse](t, rec).Key)
}

func TestMetricsEndpointCountsRequests(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/healthz", "", "")

	rec := ts.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}

func TestBearerToken(t *testing.T) {
	tok, ok := bearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)
	_, ok = bearerToken("Basic abc")
	assert.False(t, ok)
	_, ok = bearerToken("Bearer ")
	assert.False(t, ok)
}

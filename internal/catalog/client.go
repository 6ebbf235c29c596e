package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"minishop/internal/domain"
	"minishop/internal/logger"
	"minishop/internal/metrics"
)

// StatusError reports a non-2xx catalog response.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog %s: unexpected status %d", e.Op, e.StatusCode)
}

// Client performs read-only calls against the remote product catalog. Every
// call is a single attempt and nothing is cached.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *logger.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type productPage struct {
	Products []domain.Product `json:"products"`
	Total    int              `json:"total"`
	Skip     int              `json:"skip"`
	Limit    int              `json:"limit"`
}

// ListAll returns up to limit products.
func (c *Client) ListAll(ctx context.Context, limit int) ([]domain.Product, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	var page productPage
	if err := c.getJSON(ctx, "list", "/products", q, &page); err != nil {
		return nil, err
	}
	return page.Products, nil
}

func (c *Client) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	var page productPage
	if err := c.getJSON(ctx, "list_by_category", "/products/category/"+url.PathEscape(category), nil, &page); err != nil {
		return nil, err
	}
	return page.Products, nil
}

// GetByID fails with domain.ErrNotFound when the catalog answers with any
// unsuccessful status, and with domain.ErrNetwork on transport failure.
func (c *Client) GetByID(ctx context.Context, id int) (*domain.Product, error) {
	var p domain.Product
	err := c.getJSON(ctx, "get_by_id", "/products/"+strconv.Itoa(id), nil, &p)
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return nil, fmt.Errorf("product %d: %w: %w", id, domain.ErrNotFound, statusErr)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Search(ctx context.Context, query string) ([]domain.Product, error) {
	q := url.Values{}
	q.Set("q", query)
	var page productPage
	if err := c.getJSON(ctx, "search", "/products/search", q, &page); err != nil {
		return nil, err
	}
	return page.Products, nil
}

// ListCategories returns category slugs. Both the legacy list-of-strings body
// and the list-of-objects body are understood.
func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "categories", "/products/categories", nil, &raw); err != nil {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err == nil {
		return names, nil
	}
	var objects []struct {
		Slug string `json:"slug"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &objects); err != nil {
		return nil, fmt.Errorf("%w: decode categories: %v", domain.ErrNetwork, err)
	}
	out := make([]string, 0, len(objects))
	for _, o := range objects {
		if o.Slug != "" {
			out = append(out, o.Slug)
		} else {
			out = append(out, o.Name)
		}
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, dst any) (err error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveCatalog(op, err, time.Since(start))
		if err != nil {
			c.logger.Warnf(ctx, "catalog: %s %s failed after %s: %v", op, path, time.Since(start).Truncate(time.Millisecond), err)
		}
	}()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: catalog %s: %w", domain.ErrNetwork, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %w", domain.ErrNetwork, &StatusError{Op: op, StatusCode: resp.StatusCode})
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", domain.ErrNetwork, op, err)
	}
	return nil
}

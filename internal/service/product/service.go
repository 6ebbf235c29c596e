package product

import (
	"context"
	"fmt"

	"minishop/internal/domain"
)

type catalogClient interface {
	ListAll(ctx context.Context, limit int) ([]domain.Product, error)
	ListByCategory(ctx context.Context, category string) ([]domain.Product, error)
	GetByID(ctx context.Context, id int) (*domain.Product, error)
	Search(ctx context.Context, query string) ([]domain.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
}

// Service builds the storefront's product pages from catalog reads.
type Service struct {
	catalog   catalogClient
	listLimit int
}

func New(catalog catalogClient, listLimit int) *Service {
	return &Service{catalog: catalog, listLimit: listLimit}
}

// SearchResult carries the filtered products and the category facets of the
// unfiltered result.
type SearchResult struct {
	Query    string           `json:"query"`
	Products []domain.Product `json:"products"`
	Facets   []string         `json:"categories"`
}

// List returns the derived view of all products, or of one category when
// category is non-empty.
func (s *Service) List(ctx context.Context, category string, cfg ViewConfig) ([]domain.Product, error) {
	var (
		products []domain.Product
		err      error
	)
	if category != "" {
		products, err = s.catalog.ListByCategory(ctx, category)
	} else {
		products, err = s.catalog.ListAll(ctx, s.listLimit)
	}
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return Derive(products, cfg), nil
}

func (s *Service) Search(ctx context.Context, query string, cfg ViewConfig) (*SearchResult, error) {
	products, err := s.catalog.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return &SearchResult{
		Query:    query,
		Products: Derive(products, cfg),
		Facets:   Facets(products),
	}, nil
}

func (s *Service) Get(ctx context.Context, id int) (*domain.Product, error) {
	return s.catalog.GetByID(ctx, id)
}

// Related loads the product and up to four others from its category.
func (s *Service) Related(ctx context.Context, id int) ([]domain.Product, error) {
	current, err := s.catalog.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	siblings, err := s.catalog.ListByCategory(ctx, current.Category)
	if err != nil {
		return nil, fmt.Errorf("related to %d: %w", id, err)
	}
	return Related(siblings, *current), nil
}

func (s *Service) Deals(ctx context.Context) ([]domain.Product, error) {
	products, err := s.catalog.ListAll(ctx, s.listLimit)
	if err != nil {
		return nil, fmt.Errorf("deals: %w", err)
	}
	return Deals(products), nil
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.catalog.ListCategories(ctx)
}

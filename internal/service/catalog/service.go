package catalog

import (
	"context"

	"storefront/internal/domain"
)

type productReader interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type brandReader interface {
	List(ctx context.Context) ([]domain.Brand, error)
}

// Service serves the read-only storefront catalog.
type Service struct {
	products productReader
	brands   brandReader
}

func New(products productReader, brands brandReader) *Service {
	return &Service{products: products, brands: brands}
}

func (s *Service) ListProducts(ctx context.Context, f Filter) ([]domain.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	return f.Apply(products), nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *Service) ListBrands(ctx context.Context) ([]domain.Brand, error) {
	brands, err := s.brands.List(ctx)
	if err != nil {
		return nil, err
	}
	if brands == nil {
		brands = []domain.Brand{}
	}
	return brands, nil
}

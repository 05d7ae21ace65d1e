package admin

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

var brandSlug = regexp.MustCompile(`^[a-z0-9-]+$`)

type productRepo interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	ExistsByBrand(ctx context.Context, brand string) (bool, error)
}

type brandRepo interface {
	List(ctx context.Context) ([]domain.Brand, error)
	GetByID(ctx context.Context, id string) (*domain.Brand, error)
	GetByName(ctx context.Context, name string) (*domain.Brand, error)
	Create(ctx context.Context, b domain.Brand) (*domain.Brand, error)
	Delete(ctx context.Context, id string) error
}

type orderRepo interface {
	ListAll(ctx context.Context) ([]domain.Order, error)
	ListAllLines(ctx context.Context) ([]domain.OrderLine, error)
}

type profileCounter interface {
	Count(ctx context.Context) (int, error)
}

// Service manages the catalog on behalf of administrators and computes dashboard analytics.
type Service struct {
	products productRepo
	brands   brandRepo
	orders   orderRepo
	profiles profileCounter
	logger   zerolog.Logger
}

func New(products productRepo, brands brandRepo, orders orderRepo, profiles profileCounter, logger zerolog.Logger) *Service {
	return &Service{products: products, brands: brands, orders: orders, profiles: profiles, logger: logger}
}

// ProductInput is the flat admin form for a product.
type ProductInput struct {
	Name          string           `json:"name"`
	Brand         string           `json:"brand"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price"`
	Discount      int              `json:"discount"`
	Gender        string           `json:"gender"`
	Type          string           `json:"type"`
	ImageURL      string           `json:"image_url"`
}

type BrandInput struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
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

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	p, err := s.productFromInput(ctx, in)
	if err != nil {
		return nil, err
	}
	created, err := s.products.Create(ctx, p)
	if err != nil {
		s.logger.Error().Err(err).Str("name", p.Name).Msg("admin: create product")
		return nil, err
	}
	s.logger.Info().Str("product_id", created.ID).Str("brand", created.Brand).Msg("admin: product created")
	return created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (*domain.Product, error) {
	existing, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := s.productFromInput(ctx, in)
	if err != nil {
		return nil, err
	}
	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	updated, err := s.products.Update(ctx, p)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("admin: update product")
		return nil, err
	}
	return updated, nil
}

// DeleteProduct removes the product. Order history keeps its own snapshot and is not checked.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("product_id", id).Msg("admin: product deleted")
	return nil
}

func (s *Service) productFromInput(ctx context.Context, in ProductInput) (domain.Product, error) {
	p := domain.Product{
		Name:          strings.TrimSpace(in.Name),
		Brand:         strings.ToLower(strings.TrimSpace(in.Brand)),
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		Discount:      in.Discount,
		Gender:        strings.TrimSpace(in.Gender),
		Type:          strings.TrimSpace(in.Type),
		ImageURL:      strings.TrimSpace(in.ImageURL),
	}
	if err := ValidateProduct(p); err != nil {
		return domain.Product{}, err
	}
	if _, err := s.brands.GetByName(ctx, p.Brand); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Product{}, fmt.Errorf("%w: unknown brand %q", domain.ErrInvalidRequest, p.Brand)
		}
		return domain.Product{}, err
	}
	return p, nil
}

// ValidateProduct checks the field set and the discount invariant: a positive discount
// needs an original price strictly above the selling price.
func ValidateProduct(p domain.Product) error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name required", domain.ErrInvalidRequest)
	case p.Brand == "":
		return fmt.Errorf("%w: brand required", domain.ErrInvalidRequest)
	case !p.Price.IsPositive():
		return fmt.Errorf("%w: price must be positive", domain.ErrInvalidRequest)
	case p.Discount < 0 || p.Discount > 100:
		return fmt.Errorf("%w: discount must be between 0 and 100", domain.ErrInvalidRequest)
	case !slices.Contains(domain.Genders, p.Gender):
		return fmt.Errorf("%w: unknown gender %q", domain.ErrInvalidRequest, p.Gender)
	case !slices.Contains(domain.ProductTypes, p.Type):
		return fmt.Errorf("%w: unknown type %q", domain.ErrInvalidRequest, p.Type)
	case p.ImageURL == "":
		return fmt.Errorf("%w: image_url required", domain.ErrInvalidRequest)
	}
	if p.OriginalPrice != nil && !p.OriginalPrice.IsPositive() {
		return fmt.Errorf("%w: original_price must be positive", domain.ErrInvalidRequest)
	}
	if p.Discount > 0 {
		if p.OriginalPrice == nil {
			return fmt.Errorf("%w: discounted product needs original_price", domain.ErrInvalidRequest)
		}
		if !p.Price.LessThan(*p.OriginalPrice) {
			return fmt.Errorf("%w: price must be below original_price when discounted", domain.ErrInvalidRequest)
		}
	}
	return nil
}

func (s *Service) CreateBrand(ctx context.Context, in BrandInput) (*domain.Brand, error) {
	b := domain.Brand{
		Name:        strings.ToLower(strings.TrimSpace(in.Name)),
		DisplayName: strings.TrimSpace(in.DisplayName),
	}
	if !brandSlug.MatchString(b.Name) {
		return nil, fmt.Errorf("%w: brand name must match %s", domain.ErrInvalidRequest, brandSlug)
	}
	if b.DisplayName == "" {
		return nil, fmt.Errorf("%w: display_name required", domain.ErrInvalidRequest)
	}
	created, err := s.brands.Create(ctx, b)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("brand", created.Name).Msg("admin: brand created")
	return created, nil
}

// DeleteBrand fails with ErrConflict while any product references the brand slug. The
// in-use check gives the friendly message; the products_brand_fkey constraint covers a
// product written between the check and the delete.
func (s *Service) DeleteBrand(ctx context.Context, id string) error {
	b, err := s.brands.GetByID(ctx, id)
	if err != nil {
		return err
	}
	inUse, err := s.products.ExistsByBrand(ctx, b.Name)
	if err != nil {
		return err
	}
	if inUse {
		return fmt.Errorf("%w: brand %q still has products", domain.ErrConflict, b.Name)
	}
	if err := s.brands.Delete(ctx, b.ID); err != nil {
		return err
	}
	s.logger.Info().Str("brand", b.Name).Msg("admin: brand deleted")
	return nil
}

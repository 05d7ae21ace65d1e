package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"
)

// Service reconciles add/update/remove requests against the persisted per-user cart.
// Concurrent sessions of one user are not coordinated: the last row write wins.
type Service struct {
	repo        cartRepo
	productRepo productRepo
	logger      zerolog.Logger
}

type cartRepo interface {
	ListByUser(ctx context.Context, userID string) ([]domain.CartLine, error)
	AddLine(ctx context.Context, in cartrepo.AddLineInput) (*domain.CartLine, error)
	SetQuantity(ctx context.Context, userID, lineID string, quantity int) (*domain.CartLine, error)
	DeleteLine(ctx context.Context, userID, lineID string) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

func New(repo cartRepo, productRepo productRepo, logger zerolog.Logger) *Service {
	return &Service{repo: repo, productRepo: productRepo, logger: logger}
}

type AddInput struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity"`
}

// Load returns the user's cart joined with product summaries. Failures are reported as ErrFetch.
func (s *Service) Load(ctx context.Context, userID string) ([]domain.CartLine, error) {
	if userID == "" {
		return nil, domain.ErrAuthRequired
	}
	lines, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("cart: load")
		return nil, fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return lines, nil
}

// Add stores qty more units of (product, size, color). A matching line has its quantity
// incremented; otherwise a new line is created. The stored line is returned with its id.
func (s *Service) Add(ctx context.Context, userID string, in AddInput) (*domain.CartLine, error) {
	if userID == "" {
		return nil, domain.ErrAuthRequired
	}
	productID := strings.TrimSpace(in.ProductID)
	if productID == "" {
		return nil, fmt.Errorf("%w: product_id required", domain.ErrInvalidRequest)
	}
	qty := in.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidRequest)
	}
	size := strings.TrimSpace(in.Size)
	if size == "" {
		return nil, fmt.Errorf("%w: size required", domain.ErrInvalidRequest)
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: product not found", domain.ErrInvalidRequest)
		}
		return nil, err
	}
	if !domain.ValidSize(product.Type, size) {
		return nil, fmt.Errorf("%w: size %q not offered for %s", domain.ErrInvalidRequest, size, product.Type)
	}

	line, err := s.repo.AddLine(ctx, cartrepo.AddLineInput{
		UserID:    userID,
		ProductID: product.ID,
		Size:      size,
		Color:     domain.NormalizeColor(strings.TrimSpace(in.Color)),
		Quantity:  qty,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("product_id", product.ID).Msg("cart: add")
		return nil, err
	}
	line.Product = &domain.ProductSummary{
		Name:     product.Name,
		Brand:    product.Brand,
		Price:    product.Price,
		ImageURL: product.ImageURL,
	}
	s.logger.Debug().Str("user_id", userID).Str("line_id", line.ID).Int("quantity", line.Quantity).Msg("cart: add")
	return line, nil
}

// SetQuantity overwrites a line's quantity. A quantity of zero or less removes the line
// and returns a nil line.
func (s *Service) SetQuantity(ctx context.Context, userID, lineID string, quantity int) (*domain.CartLine, error) {
	if userID == "" {
		return nil, domain.ErrAuthRequired
	}
	if strings.TrimSpace(lineID) == "" {
		return nil, fmt.Errorf("%w: line id required", domain.ErrInvalidRequest)
	}
	if quantity <= 0 {
		return nil, s.Remove(ctx, userID, lineID)
	}
	return s.repo.SetQuantity(ctx, userID, lineID, quantity)
}

func (s *Service) Remove(ctx context.Context, userID, lineID string) error {
	if userID == "" {
		return domain.ErrAuthRequired
	}
	if strings.TrimSpace(lineID) == "" {
		return fmt.Errorf("%w: line id required", domain.ErrInvalidRequest)
	}
	return s.repo.DeleteLine(ctx, userID, lineID)
}

// Clear deletes every line of the user. It runs as part of order confirmation.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrAuthRequired
	}
	n, err := s.repo.DeleteByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("cart: clear")
		return err
	}
	s.logger.Info().Str("user_id", userID).Int64("lines", n).Msg("cart: cleared")
	return nil
}

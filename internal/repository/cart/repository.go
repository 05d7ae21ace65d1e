package cart

import (
	"context"

	"storefront/internal/domain"
)

type AddLineInput struct {
	UserID    string
	ProductID string
	Size      string
	Color     string
	Quantity  int
}

type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.CartLine, error)
	AddLine(ctx context.Context, in AddLineInput) (*domain.CartLine, error)
	SetQuantity(ctx context.Context, userID, lineID string, quantity int) (*domain.CartLine, error)
	DeleteLine(ctx context.Context, userID, lineID string) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

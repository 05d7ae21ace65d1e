package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type Repository interface {
	// Create inserts a pending order without lines.
	Create(ctx context.Context, userID string, total decimal.Decimal) (*domain.Order, error)
	// InsertLines writes every line of an order or none of them.
	InsertLines(ctx context.Context, orderID string, lines []domain.OrderLine) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	MarkCompleted(ctx context.Context, id string) (*domain.Order, error)
	// SetSession records the payment session opened for an order.
	SetSession(ctx context.Context, id, sessionID string) error
	// ListAll returns every order without lines.
	ListAll(ctx context.Context) ([]domain.Order, error)
	ListAllLines(ctx context.Context) ([]domain.OrderLine, error)
	// ListOrphaned returns pending orders created before now-olderThan that have zero
	// lines or never got a payment session.
	ListOrphaned(ctx context.Context, olderThan time.Duration) ([]domain.Order, error)
}

package brand

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Brand, error)
	GetByID(ctx context.Context, id string) (*domain.Brand, error)
	GetByName(ctx context.Context, name string) (*domain.Brand, error)
	Create(ctx context.Context, b domain.Brand) (*domain.Brand, error)
	Upsert(ctx context.Context, b domain.Brand) (*domain.Brand, error)
	Delete(ctx context.Context, id string) error
}

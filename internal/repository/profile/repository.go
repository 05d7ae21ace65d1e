package profile

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	Ensure(ctx context.Context, p domain.Profile) (*domain.Profile, error)
	Count(ctx context.Context) (int, error)
}

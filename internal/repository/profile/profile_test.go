package profile

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"storefront/internal/db/dbtest"
	"storefront/internal/domain"
)

func TestPostgres_EnsureIsIdempotent(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	repo := NewPostgres(pool)
	id := uuid.NewString()

	first, err := repo.Ensure(ctx, domain.Profile{ID: id, Email: "ana@example.com", FullName: "Ana"})
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	second, err := repo.Ensure(ctx, domain.Profile{ID: id, Email: "ana@example.com", FullName: "Ana"})
	if err != nil {
		t.Fatalf("Ensure again: %v", err)
	}
	if first.ID != second.ID || !first.CreatedAt.Equal(second.CreatedAt) {
		t.Fatalf("expected same profile, got %+v and %+v", first, second)
	}

	n, err := repo.Count(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Count: %d %v", n, err)
	}
}

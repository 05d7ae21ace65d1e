package product

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"storefront/internal/db/dbtest"
	"storefront/internal/domain"
)

func TestPostgres_CreateListGet(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	dbtest.InsertBrands(t, pool, "nike", "puma", "adidas")
	repo := NewPostgres(pool, zerolog.Nop())

	op := decimal.RequireFromString("119.99")
	first, err := repo.Create(ctx, domain.Product{
		Name: "Pegasus 40", Brand: "nike", Price: decimal.RequireFromString("95.99"), OriginalPrice: &op,
		Discount: 20, Gender: "mujer", Type: "zapatillas", ImageURL: "/files/a.jpg",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.ID == "" || first.OriginalPrice == nil || first.OriginalPrice.String() != "119.99" {
		t.Fatalf("unexpected created product %+v", first)
	}
	second, err := repo.Create(ctx, domain.Product{
		Name: "Essentials Tee", Brand: "puma", Price: decimal.NewFromInt(25), Gender: "hombre", Type: "camiseta", ImageURL: "/files/b.jpg",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID {
		t.Fatalf("expected newest first, got %+v", list)
	}

	got, err := repo.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Pegasus 40" || !got.Price.Equal(decimal.RequireFromString("95.99")) || got.Discount != 20 {
		t.Fatalf("unexpected product %+v", got)
	}

	byID, err := repo.GetByIDs(ctx, []string{first.ID, second.ID, uuid.NewString()})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(byID) != 2 {
		t.Fatalf("expected 2 products, got %d", len(byID))
	}

	if _, err := repo.GetByID(ctx, uuid.NewString()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostgres_UpdateDeleteExistsByBrand(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	dbtest.InsertBrands(t, pool, "nike", "puma", "adidas")
	repo := NewPostgres(pool, zerolog.Nop())

	p, err := repo.Create(ctx, domain.Product{
		Name: "Tee", Brand: "adidas", Price: decimal.NewFromInt(20), Gender: "hombre", Type: "camiseta", ImageURL: "/files/t.jpg",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	p.Name = "Tee v2"
	p.Price = decimal.RequireFromString("22.50")
	updated, err := repo.Update(ctx, *p)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ID != p.ID || updated.Name != "Tee v2" || !updated.Price.Equal(decimal.RequireFromString("22.50")) {
		t.Fatalf("unexpected updated product %+v", updated)
	}

	exists, err := repo.ExistsByBrand(ctx, "adidas")
	if err != nil || !exists {
		t.Fatalf("expected brand in use, got %v %v", exists, err)
	}

	if err := repo.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, p.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	exists, err = repo.ExistsByBrand(ctx, "adidas")
	if err != nil || exists {
		t.Fatalf("expected brand free, got %v %v", exists, err)
	}
}

func TestPostgres_CreateRejectsUnknownBrand(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	repo := NewPostgres(pool, zerolog.Nop())

	_, err := repo.Create(ctx, domain.Product{
		Name: "Ghost", Brand: "no-such-brand", Price: decimal.NewFromInt(10), Gender: "hombre", Type: "camiseta",
	})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected invalid request for unknown brand, got %v", err)
	}
}

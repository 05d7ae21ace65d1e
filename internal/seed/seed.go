package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type productSeed struct {
	Name          string
	Brand         string
	Price         string
	OriginalPrice string
	Discount      int
	Gender        string
	Type          string
	ImageURL      string
}

var demoBrands = []domain.Brand{
	{Name: "nike", DisplayName: "Nike"},
	{Name: "adidas", DisplayName: "Adidas"},
	{Name: "puma", DisplayName: "Puma"},
	{Name: "new-balance", DisplayName: "New Balance"},
}

var demoProducts = []productSeed{
	{Name: "Air Max 90", Brand: "nike", Price: "120.00", Gender: "hombre", Type: "zapatillas", ImageURL: "/files/demo/air-max-90.jpg"},
	{Name: "Pegasus 40", Brand: "nike", Price: "95.99", OriginalPrice: "119.99", Discount: 20, Gender: "mujer", Type: "zapatillas", ImageURL: "/files/demo/pegasus-40.jpg"},
	{Name: "Ultraboost Light", Brand: "adidas", Price: "180.00", Gender: "mujer", Type: "zapatillas", ImageURL: "/files/demo/ultraboost.jpg"},
	{Name: "Trefoil Hoodie", Brand: "adidas", Price: "49.99", OriginalPrice: "69.99", Discount: 29, Gender: "hombre", Type: "sudadera", ImageURL: "/files/demo/trefoil-hoodie.jpg"},
	{Name: "Essentials Tee", Brand: "puma", Price: "25.00", Gender: "hombre", Type: "camiseta", ImageURL: "/files/demo/essentials-tee.jpg"},
	{Name: "Studio Leggings", Brand: "puma", Price: "39.99", Gender: "mujer", Type: "leggings", ImageURL: "/files/demo/studio-leggings.jpg"},
	{Name: "574 Core", Brand: "new-balance", Price: "84.99", OriginalPrice: "99.99", Discount: 15, Gender: "hombre", Type: "zapatillas", ImageURL: "/files/demo/574-core.jpg"},
	{Name: "Athletics Track Pant", Brand: "new-balance", Price: "64.99", Gender: "mujer", Type: "pantalon", ImageURL: "/files/demo/track-pant.jpg"},
}

// Apply inserts demo brands and products for manual testing. It is idempotent: brands
// upsert on name and products are skipped when the same brand and name already exist.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	for _, b := range demoBrands {
		if err := upsertBrand(ctx, pool, b); err != nil {
			return fmt.Errorf("upsert brand %s: %w", b.Name, err)
		}
	}
	for _, p := range demoProducts {
		if err := insertProduct(ctx, pool, p); err != nil {
			return fmt.Errorf("insert product %s: %w", p.Name, err)
		}
	}
	return nil
}

// Products returns the demo catalog as domain records.
func Products() []domain.Product {
	out := make([]domain.Product, 0, len(demoProducts))
	for _, s := range demoProducts {
		p := domain.Product{
			Name:     s.Name,
			Brand:    s.Brand,
			Price:    decimal.RequireFromString(s.Price),
			Discount: s.Discount,
			Gender:   s.Gender,
			Type:     s.Type,
			ImageURL: s.ImageURL,
		}
		if s.OriginalPrice != "" {
			op := decimal.RequireFromString(s.OriginalPrice)
			p.OriginalPrice = &op
		}
		out = append(out, p)
	}
	return out
}

func upsertBrand(ctx context.Context, pool *pgxpool.Pool, b domain.Brand) error {
	const q = `
INSERT INTO brands (name, display_name)
VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET display_name = EXCLUDED.display_name
`
	_, err := pool.Exec(ctx, q, b.Name, b.DisplayName)
	return err
}

func insertProduct(ctx context.Context, pool *pgxpool.Pool, p productSeed) error {
	const q = `
INSERT INTO products (name, brand, price, original_price, discount, gender, type, image_url)
SELECT $1::text, $2::text, $3::numeric, NULLIF($4::text, '')::numeric, $5::int, $6::text, $7::text, $8::text
WHERE NOT EXISTS (SELECT 1 FROM products WHERE brand = $2::text AND name = $1::text)
`
	_, err := pool.Exec(ctx, q, p.Name, p.Brand, p.Price, p.OriginalPrice, p.Discount, p.Gender, p.Type, p.ImageURL)
	return err
}

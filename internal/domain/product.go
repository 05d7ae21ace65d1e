package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Brand holds the brand slug.
type Product struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Brand         string           `json:"brand"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	Discount      int              `json:"discount"`
	Gender        string           `json:"gender"`
	Type          string           `json:"type"`
	ImageURL      string           `json:"image_url"`
	CreatedAt     time.Time        `json:"created_at"`
}

// OnSale reports whether the product is discounted.
func (p Product) OnSale() bool {
	return p.Discount > 0
}

// ProductSummary is the subset of product fields joined onto cart and order lines.
type ProductSummary struct {
	Name     string          `json:"name"`
	Brand    string          `json:"brand"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"image_url"`
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
)

type Order struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	SessionID   string          `json:"session_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	Lines       []OrderLine     `json:"order_items"`
}

// OrderLine captures the unit price and display fields at order time.
type OrderLine struct {
	ID           string          `json:"id"`
	OrderID      string          `json:"order_id"`
	ProductID    string          `json:"product_id"`
	Quantity     int             `json:"quantity"`
	Size         string          `json:"size"`
	Color        string          `json:"color"`
	Price        decimal.Decimal `json:"price"`
	ProductName  string          `json:"product_name"`
	ProductBrand string          `json:"product_brand"`
	ImageURL     string          `json:"image_url,omitempty"`
}

// Subtotal is quantity times the snapshot price.
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderTotal sums the line subtotals.
func OrderTotal(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

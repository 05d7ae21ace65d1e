package domain

import "time"

// DefaultColor is stored when a line is added without a color choice.
const DefaultColor = "default"

// CartLine is one (product, size, color) selection owned by a user.
type CartLine struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Product   *ProductSummary `json:"products,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// LineKey identifies a cart line independent of its storage id.
type LineKey struct {
	ProductID string
	Size      string
	Color     string
}

func (l CartLine) Key() LineKey {
	return LineKey{ProductID: l.ProductID, Size: l.Size, Color: l.Color}
}

// NormalizeColor maps an empty color to DefaultColor.
func NormalizeColor(color string) string {
	if color == "" {
		return DefaultColor
	}
	return color
}

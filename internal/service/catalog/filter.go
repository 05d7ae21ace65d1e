package catalog

import (
	"strings"

	"storefront/internal/domain"
)

const (
	FilterAll  = "all"
	FilterSale = "ofertas"
)

// Filter is the browsing predicate: free-text search over name and brand,
// a gender axis (with FilterSale selecting discounted products) and a brand slug.
// Empty fields behave like FilterAll.
type Filter struct {
	Search string
	Gender string
	Brand  string
}

func (f Filter) Match(p domain.Product) bool {
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		if !strings.Contains(strings.ToLower(p.Name), term) && !strings.Contains(strings.ToLower(p.Brand), term) {
			return false
		}
	}
	switch f.Gender {
	case "", FilterAll:
	case FilterSale:
		if !p.OnSale() {
			return false
		}
	default:
		if p.Gender != f.Gender {
			return false
		}
	}
	if f.Brand != "" && f.Brand != FilterAll && p.Brand != f.Brand {
		return false
	}
	return true
}

// Apply returns the matching products in their original order.
func (f Filter) Apply(products []domain.Product) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

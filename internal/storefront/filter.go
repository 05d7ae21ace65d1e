package storefront

import (
	"storefront/internal/domain"
	"storefront/internal/service/catalog"
)

// FilterState holds the browsing filters of one storefront view.
type FilterState struct {
	f catalog.Filter
}

func NewFilterState() *FilterState {
	return &FilterState{f: catalog.Filter{Gender: catalog.FilterAll, Brand: catalog.FilterAll}}
}

func (s *FilterState) SetSearch(q string)      { s.f.Search = q }
// SetGender switches the gender tab and drops the brand chip, since the brand list
// belongs to the previous tab.
func (s *FilterState) SetGender(gender string) {
	s.f.Gender = gender
	s.f.Brand = catalog.FilterAll
}

func (s *FilterState) SetBrand(brand string) { s.f.Brand = brand }

func (s *FilterState) Filter() catalog.Filter { return s.f }

// Apply returns the products visible under the current filters.
func (s *FilterState) Apply(products []domain.Product) []domain.Product {
	return s.f.Apply(products)
}

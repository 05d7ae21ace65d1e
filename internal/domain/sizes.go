package domain

import "slices"

const ProductTypeSneakers = "zapatillas"

var (
	shoeSizes    = []string{"35", "36", "37", "38", "39", "40", "41", "42", "43", "44", "45"}
	apparelSizes = []string{"XS", "S", "M", "L", "XL", "XXL"}

	// Genders and ProductTypes are the admin form vocabularies.
	Genders      = []string{"hombre", "mujer"}
	ProductTypes = []string{"zapatillas", "camiseta", "sudadera", "pantalon", "top", "leggings"}
)

// SizesFor returns the size vocabulary of a product type.
func SizesFor(productType string) []string {
	if productType == ProductTypeSneakers {
		return slices.Clone(shoeSizes)
	}
	return slices.Clone(apparelSizes)
}

// ValidSize reports whether size belongs to the vocabulary of productType.
func ValidSize(productType, size string) bool {
	if productType == ProductTypeSneakers {
		return slices.Contains(shoeSizes, size)
	}
	return slices.Contains(apparelSizes, size)
}

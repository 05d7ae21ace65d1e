package admin

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

const (
	topProductsLimit = 10
	unknownLabel     = "Unknown"
)

type BrandCount struct {
	Brand    string `json:"brand"`
	Products int    `json:"products_per_brand"`
}

type ProductStats struct {
	TotalProducts int          `json:"total_products"`
	PerBrand      []BrandCount `json:"per_brand"`
}

type OrderSummary struct {
	TotalOrders       int             `json:"total_orders"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	UniqueCustomers   int             `json:"unique_customers"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

type TopProduct struct {
	ProductID         string          `json:"id"`
	Name              string          `json:"name"`
	Brand             string          `json:"brand"`
	TimesOrdered      int             `json:"times_ordered"`
	TotalQuantitySold int             `json:"total_quantity_sold"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
}

type Analytics struct {
	Products        ProductStats `json:"products"`
	Orders          OrderSummary `json:"orders"`
	TopProducts     []TopProduct `json:"top_products"`
	RegisteredUsers int          `json:"registered_users"`
}

// Analytics recomputes every dashboard aggregate from the full row sets.
func (s *Service) Analytics(ctx context.Context) (*Analytics, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	lines, err := s.orders.ListAllLines(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.profiles.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Analytics{
		Products:        ProductsPerBrand(products),
		Orders:          SummarizeOrders(orders),
		TopProducts:     TopProducts(lines, products, topProductsLimit),
		RegisteredUsers: users,
	}, nil
}

// ProductsPerBrand counts products per brand slug, ordered by slug.
func ProductsPerBrand(products []domain.Product) ProductStats {
	counts := map[string]int{}
	for _, p := range products {
		counts[p.Brand]++
	}
	stats := ProductStats{TotalProducts: len(products), PerBrand: make([]BrandCount, 0, len(counts))}
	for brand, n := range counts {
		stats.PerBrand = append(stats.PerBrand, BrandCount{Brand: brand, Products: n})
	}
	sort.Slice(stats.PerBrand, func(i, j int) bool { return stats.PerBrand[i].Brand < stats.PerBrand[j].Brand })
	return stats
}

func SummarizeOrders(orders []domain.Order) OrderSummary {
	sum := OrderSummary{TotalRevenue: decimal.Zero, AverageOrderValue: decimal.Zero}
	customers := map[string]struct{}{}
	for _, o := range orders {
		sum.TotalRevenue = sum.TotalRevenue.Add(o.TotalAmount)
		customers[o.UserID] = struct{}{}
	}
	sum.TotalOrders = len(orders)
	sum.UniqueCustomers = len(customers)
	if sum.TotalOrders > 0 {
		sum.AverageOrderValue = sum.TotalRevenue.DivRound(decimal.NewFromInt(int64(sum.TotalOrders)), 2)
	}
	return sum
}

// TopProducts ranks products by units sold. Labels come from the line snapshot, then the
// live product, then "Unknown".
func TopProducts(lines []domain.OrderLine, products []domain.Product, limit int) []TopProduct {
	live := make(map[string]domain.Product, len(products))
	for _, p := range products {
		live[p.ID] = p
	}

	byID := map[string]*TopProduct{}
	for _, l := range lines {
		tp, ok := byID[l.ProductID]
		if !ok {
			tp = &TopProduct{ProductID: l.ProductID, TotalRevenue: decimal.Zero}
			tp.Name, tp.Brand = labels(l, live[l.ProductID])
			byID[l.ProductID] = tp
		}
		tp.TimesOrdered++
		tp.TotalQuantitySold += l.Quantity
		tp.TotalRevenue = tp.TotalRevenue.Add(l.Subtotal())
	}

	out := make([]TopProduct, 0, len(byID))
	for _, tp := range byID {
		out = append(out, *tp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalQuantitySold != out[j].TotalQuantitySold {
			return out[i].TotalQuantitySold > out[j].TotalQuantitySold
		}
		if !out[i].TotalRevenue.Equal(out[j].TotalRevenue) {
			return out[i].TotalRevenue.GreaterThan(out[j].TotalRevenue)
		}
		return out[i].ProductID < out[j].ProductID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func labels(l domain.OrderLine, p domain.Product) (name, brand string) {
	name, brand = l.ProductName, l.ProductBrand
	if name == "" {
		name = p.Name
	}
	if brand == "" {
		brand = p.Brand
	}
	if name == "" {
		name = unknownLabel
	}
	if brand == "" {
		brand = unknownLabel
	}
	return name, brand
}

package httpserver

import (
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type listResponse[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

func newList[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Count: len(items), Results: items}
}

type productDetail struct {
	domain.Product
	Sizes []string `json:"sizes"`
}

type cartResponse struct {
	Items         []domain.CartLine `json:"items"`
	TotalQuantity int               `json:"total_quantity"`
	Total         decimal.Decimal   `json:"total"`
}

func newCartResponse(lines []domain.CartLine) cartResponse {
	if lines == nil {
		lines = []domain.CartLine{}
	}
	resp := cartResponse{Items: lines, Total: decimal.Zero}
	for _, l := range lines {
		resp.TotalQuantity += l.Quantity
		if l.Product != nil {
			resp.Total = resp.Total.Add(l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}
	}
	return resp
}

type meResponse struct {
	User    domain.Identity `json:"user"`
	Profile *domain.Profile `json:"profile"`
	IsAdmin bool            `json:"is_admin"`
}

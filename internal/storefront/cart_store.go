package storefront

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	cartsvc "storefront/internal/service/cart"
)

// RemoteCart is the persisted per-user cart. *Client implements it.
type RemoteCart interface {
	Load(ctx context.Context) ([]domain.CartLine, error)
	Add(ctx context.Context, in cartsvc.AddInput) (*domain.CartLine, error)
	SetQuantity(ctx context.Context, lineID string, quantity int) error
	Remove(ctx context.Context, lineID string) error
}

// CartStore is the single cart view the UI reads from. Every mutation waits for the
// remote result before touching the local list, so a failed call leaves it unchanged.
// Without a remote (guest) lines live only locally and have no ID.
//
// CartStore is not safe for concurrent use; it is owned by one UI controller.
type CartStore struct {
	remote RemoteCart
	lines  []domain.CartLine
}

func NewCartStore(remote RemoteCart) *CartStore {
	return &CartStore{remote: remote}
}

// Attach switches the store to a signed-in user's remote cart. Passing nil detaches.
func (s *CartStore) Attach(remote RemoteCart) {
	s.remote = remote
}

// Load replaces the local list with the remote cart. On failure the store is left empty
// and a *FetchError is returned for the caller to surface as a notice.
func (s *CartStore) Load(ctx context.Context) error {
	s.lines = nil
	if s.remote == nil {
		return nil
	}
	lines, err := s.remote.Load(ctx)
	if err != nil {
		return &FetchError{Err: err}
	}
	s.lines = append([]domain.CartLine(nil), lines...)
	return nil
}

// Add puts qty units of (product, size, color) in the cart. product supplies the display
// summary for guest lines.
func (s *CartStore) Add(ctx context.Context, product domain.Product, size, color string, qty int) (*domain.CartLine, error) {
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidRequest)
	}
	size = strings.TrimSpace(size)
	if !domain.ValidSize(product.Type, size) {
		return nil, fmt.Errorf("%w: size %q not offered for %s", domain.ErrInvalidRequest, size, product.Type)
	}
	key := domain.LineKey{ProductID: product.ID, Size: size, Color: domain.NormalizeColor(strings.TrimSpace(color))}

	if s.remote == nil {
		if i := s.index(key); i >= 0 {
			s.lines[i].Quantity += qty
			return s.copyAt(i), nil
		}
		s.lines = append(s.lines, domain.CartLine{
			ProductID: key.ProductID,
			Size:      key.Size,
			Color:     key.Color,
			Quantity:  qty,
			Product:   summaryOf(product),
		})
		return s.copyAt(len(s.lines) - 1), nil
	}

	line, err := s.remote.Add(ctx, cartsvc.AddInput{ProductID: key.ProductID, Size: key.Size, Color: key.Color, Quantity: qty})
	if err != nil {
		return nil, err
	}
	if line.Product == nil {
		line.Product = summaryOf(product)
	}
	if i := s.index(line.Key()); i >= 0 {
		s.lines[i] = *line
		return s.copyAt(i), nil
	}
	s.lines = append(s.lines, *line)
	return s.copyAt(len(s.lines) - 1), nil
}

// SetQuantity overwrites the quantity of the line with key. Zero or less removes it.
func (s *CartStore) SetQuantity(ctx context.Context, key domain.LineKey, qty int) error {
	if qty <= 0 {
		return s.Remove(ctx, key)
	}
	i := s.index(key)
	if i < 0 {
		return fmt.Errorf("%w: cart line", domain.ErrNotFound)
	}
	if id := s.lines[i].ID; id != "" && s.remote != nil {
		if err := s.remote.SetQuantity(ctx, id, qty); err != nil {
			return err
		}
	}
	s.lines[i].Quantity = qty
	return nil
}

// Remove drops the line with key. Lines without a remote id skip the remote call. A line
// already gone remotely is still removed locally.
func (s *CartStore) Remove(ctx context.Context, key domain.LineKey) error {
	i := s.index(key)
	if i < 0 {
		return nil
	}
	if id := s.lines[i].ID; id != "" && s.remote != nil {
		if err := s.remote.Remove(ctx, id); err != nil && !isNotFound(err) {
			return err
		}
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	return nil
}

// Reset empties the local view without contacting the remote.
func (s *CartStore) Reset() {
	s.lines = nil
}

// Lines returns a copy of the local list in insertion order.
func (s *CartStore) Lines() []domain.CartLine {
	return append([]domain.CartLine(nil), s.lines...)
}

// Count is the number of units across all lines.
func (s *CartStore) Count() int {
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// Total is the display total from the joined product prices.
func (s *CartStore) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.lines {
		if l.Product == nil {
			continue
		}
		total = total.Add(l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

func (s *CartStore) index(key domain.LineKey) int {
	for i, l := range s.lines {
		if l.Key() == key {
			return i
		}
	}
	return -1
}

func (s *CartStore) copyAt(i int) *domain.CartLine {
	l := s.lines[i]
	return &l
}

func summaryOf(p domain.Product) *domain.ProductSummary {
	return &domain.ProductSummary{Name: p.Name, Brand: p.Brand, Price: p.Price, ImageURL: p.ImageURL}
}

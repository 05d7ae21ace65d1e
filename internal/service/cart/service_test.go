package cart

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"
)

// memoryRepo mimics the uniqueness key of the cart_items table.
type memoryRepo struct {
	lines   []domain.CartLine
	nextID  int
	listErr error
	addErr  error
}

func (r *memoryRepo) ListByUser(_ context.Context, userID string) ([]domain.CartLine, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []domain.CartLine
	for _, l := range r.lines {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *memoryRepo) AddLine(_ context.Context, in cartrepo.AddLineInput) (*domain.CartLine, error) {
	if r.addErr != nil {
		return nil, r.addErr
	}
	for i, l := range r.lines {
		if l.UserID == in.UserID && l.ProductID == in.ProductID && l.Size == in.Size && l.Color == in.Color {
			r.lines[i].Quantity += in.Quantity
			clone := r.lines[i]
			return &clone, nil
		}
	}
	r.nextID++
	line := domain.CartLine{
		ID:        fmt.Sprintf("line-%d", r.nextID),
		UserID:    in.UserID,
		ProductID: in.ProductID,
		Size:      in.Size,
		Color:     in.Color,
		Quantity:  in.Quantity,
	}
	r.lines = append(r.lines, line)
	return &line, nil
}

func (r *memoryRepo) SetQuantity(_ context.Context, userID, lineID string, quantity int) (*domain.CartLine, error) {
	for i, l := range r.lines {
		if l.ID == lineID && l.UserID == userID {
			r.lines[i].Quantity = quantity
			clone := r.lines[i]
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) DeleteLine(_ context.Context, userID, lineID string) error {
	for i, l := range r.lines {
		if l.ID == lineID && l.UserID == userID {
			r.lines = append(r.lines[:i], r.lines[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *memoryRepo) DeleteByUser(_ context.Context, userID string) (int64, error) {
	kept := r.lines[:0]
	var n int64
	for _, l := range r.lines {
		if l.UserID == userID {
			n++
			continue
		}
		kept = append(kept, l)
	}
	r.lines = kept
	return n, nil
}

type stubProductRepo struct {
	products map[string]domain.Product
	err      error
}

func (s *stubProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func newService() (*Service, *memoryRepo) {
	repo := &memoryRepo{}
	products := &stubProductRepo{products: map[string]domain.Product{
		"air-max": {ID: "air-max", Name: "Air Max", Brand: "nike", Price: decimal.NewFromInt(120), Type: "zapatillas"},
		"hoodie":  {ID: "hoodie", Name: "Hoodie", Brand: "nike", Price: decimal.NewFromInt(60), Type: "sudadera"},
	}}
	return New(repo, products, zerolog.Nop()), repo
}

func TestAddSameKeyAccumulatesQuantity(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	first, err := svc.Add(ctx, "u1", AddInput{ProductID: "air-max", Size: "42", Color: "red", Quantity: 2})
	require.NoError(t, err)
	second, err := svc.Add(ctx, "u1", AddInput{ProductID: "air-max", Size: "42", Color: "red", Quantity: 3})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Quantity)
	require.Len(t, repo.lines, 1)
	assert.Equal(t, 5, repo.lines[0].Quantity)
	require.NotNil(t, second.Product)
	assert.Equal(t, "Air Max", second.Product.Name)
}

func TestAddDifferentSizeOrColorCreatesNewLine(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	_, err := svc.Add(ctx, "u1", AddInput{ProductID: "air-max", Size: "42"})
	require.NoError(t, err)
	_, err = svc.Add(ctx, "u1", AddInput{ProductID: "air-max", Size: "43"})
	require.NoError(t, err)
	_, err = svc.Add(ctx, "u1", AddInput{ProductID: "air-max", Size: "42", Color: "blue"})
	require.NoError(t, err)
	_, err = svc.Add(ctx, "u2", AddInput{ProductID: "air-max", Size: "42"})
	require.NoError(t, err)

	assert.Len(t, repo.lines, 4)
}

func TestAddDefaultsQuantityAndColor(t *testing.T) {
	svc, _ := newService()
	line, err := svc.Add(context.Background(), "u1", AddInput{ProductID: "hoodie", Size: "M"})
	require.NoError(t, err)
	assert.Equal(t, 1, line.Quantity)
	assert.Equal(t, domain.DefaultColor, line.Color)
}

func TestAddValidation(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	_, err := svc.Add(ctx, "", AddInput{ProductID: "air-max", Size: "42"})
	assert.ErrorIs(t, err, domain.ErrAuthRequired)

	_, err = svc.Add(ctx, "u1", AddInput{Size: "42"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.Add(ctx, "u1", AddInput{ProductID: "air-max", Size: "42", Quantity: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.Add(ctx, "u1", AddInput{ProductID: "air-max", Size: "M"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.Add(ctx, "u1", AddInput{ProductID: "hoodie", Size: "42"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.Add(ctx, "u1", AddInput{ProductID: "missing", Size: "42"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	assert.Empty(t, repo.lines)
}

func TestSetQuantityZeroRemovesLine(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()
	line, err := svc.Add(ctx, "u1", AddInput{ProductID: "air-max", Size: "42", Quantity: 2})
	require.NoError(t, err)

	got, err := svc.SetQuantity(ctx, "u1", line.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, repo.lines)
}

func TestSetQuantityEquivalentToRemove(t *testing.T) {
	for _, qty := range []int{0, -3} {
		viaSet, setRepo := newService()
		viaRemove, removeRepo := newService()
		ctx := context.Background()

		a, err := viaSet.Add(ctx, "u1", AddInput{ProductID: "hoodie", Size: "L"})
		require.NoError(t, err)
		b, err := viaRemove.Add(ctx, "u1", AddInput{ProductID: "hoodie", Size: "L"})
		require.NoError(t, err)

		_, err = viaSet.SetQuantity(ctx, "u1", a.ID, qty)
		require.NoError(t, err)
		require.NoError(t, viaRemove.Remove(ctx, "u1", b.ID))

		assert.Equal(t, removeRepo.lines, setRepo.lines)
	}
}

func TestSetQuantityUpdates(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	line, err := svc.Add(ctx, "u1", AddInput{ProductID: "air-max", Size: "42"})
	require.NoError(t, err)

	got, err := svc.SetQuantity(ctx, "u1", line.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Quantity)
}

func TestOperationsAreOwnerScoped(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()
	line, err := svc.Add(ctx, "u1", AddInput{ProductID: "air-max", Size: "42"})
	require.NoError(t, err)

	_, err = svc.SetQuantity(ctx, "intruder", line.ID, 9)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Remove(ctx, "intruder", line.ID), domain.ErrNotFound)
	assert.Len(t, repo.lines, 1)
	assert.Equal(t, 1, repo.lines[0].Quantity)
}

func TestLoadWrapsFetchError(t *testing.T) {
	svc, repo := newService()
	repo.listErr = errors.New("unreachable")
	_, err := svc.Load(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrFetch)
}

func TestLoadEmptyIsNotNil(t *testing.T) {
	svc, _ := newService()
	lines, err := svc.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, lines)
	assert.Empty(t, lines)
}

func TestClearOnlyTouchesOwner(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()
	_, err := svc.Add(ctx, "u1", AddInput{ProductID: "air-max", Size: "42"})
	require.NoError(t, err)
	_, err = svc.Add(ctx, "u2", AddInput{ProductID: "air-max", Size: "42"})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, "u1"))
	require.Len(t, repo.lines, 1)
	assert.Equal(t, "u2", repo.lines[0].UserID)
}

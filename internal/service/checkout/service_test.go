package checkout

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
	"storefront/internal/events"
	"storefront/internal/payment"
)

const goodToken = "good-token"

type stubAuth struct{}

func (stubAuth) Verify(_ context.Context, token string) (domain.Identity, error) {
	if token != goodToken {
		return domain.Identity{}, fmt.Errorf("%w: bad token", domain.ErrUnauthorized)
	}
	return domain.Identity{UserID: "user-1", Email: "u@example.com"}, nil
}

type stubProducts map[string]domain.Product

func (s stubProducts) GetByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	out := map[string]domain.Product{}
	for _, id := range ids {
		if p, ok := s[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type memoryOrders struct {
	orders    map[string]*domain.Order
	lines     map[string][]domain.OrderLine
	writes    int
	linesErr  error
	createErr error
}

func (m *memoryOrders) SetSession(_ context.Context, id, sessionID string) error {
	o, ok := m.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	m.writes++
	o.SessionID = sessionID
	return nil
}

func newMemoryOrders() *memoryOrders {
	return &memoryOrders{orders: map[string]*domain.Order{}, lines: map[string][]domain.OrderLine{}}
}

func (m *memoryOrders) Create(_ context.Context, userID string, total decimal.Decimal) (*domain.Order, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.writes++
	o := &domain.Order{ID: fmt.Sprintf("order-%d", len(m.orders)+1), UserID: userID, TotalAmount: total, Status: domain.OrderStatusPending}
	m.orders[o.ID] = o
	cp := *o
	return &cp, nil
}

func (m *memoryOrders) InsertLines(_ context.Context, orderID string, lines []domain.OrderLine) error {
	if m.linesErr != nil {
		return m.linesErr
	}
	m.writes++
	for _, l := range lines {
		l.OrderID = orderID
		m.lines[orderID] = append(m.lines[orderID], l)
	}
	return nil
}

func (m *memoryOrders) GetByID(_ context.Context, id string) (*domain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	cp.Lines = m.lines[id]
	return &cp, nil
}

func (m *memoryOrders) MarkCompleted(_ context.Context, id string) (*domain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	m.writes++
	o.Status = domain.OrderStatusCompleted
	cp := *o
	return &cp, nil
}

// orphaned mirrors the repository query: pending orders without lines or without a session.
func (m *memoryOrders) orphaned() []string {
	var ids []string
	for id, o := range m.orders {
		if o.Status == domain.OrderStatusPending && (len(m.lines[id]) == 0 || o.SessionID == "") {
			ids = append(ids, id)
		}
	}
	return ids
}

type stubPayments struct {
	requests []payment.SessionRequest
	err      error
}

func (s *stubPayments) CreateSession(_ context.Context, req payment.SessionRequest) (*payment.Session, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return &payment.Session{ID: "cs_test_1", URL: "https://pay.example.com/cs_test_1"}, nil
}

type stubCart struct {
	cleared []string
	err     error
}

func (c *stubCart) Clear(_ context.Context, userID string) error {
	if c.err != nil {
		return c.err
	}
	c.cleared = append(c.cleared, userID)
	return nil
}

type capturePublisher struct{ events []events.OrderEvent }

func (p *capturePublisher) Publish(_ context.Context, evt events.OrderEvent) error {
	p.events = append(p.events, evt)
	return nil
}

type fixture struct {
	svc      *Service
	orders   *memoryOrders
	payments *stubPayments
	cart     *stubCart
	events   *capturePublisher
}

func newFixture() fixture {
	products := stubProducts{
		"p-airmax": {ID: "p-airmax", Name: "Air Max", Brand: "nike", Price: decimal.NewFromInt(120), Type: domain.ProductTypeSneakers, ImageURL: "https://img/airmax.png"},
		"p-tee":    {ID: "p-tee", Name: "Tee", Brand: "adidas", Price: decimal.RequireFromString("19.99"), Type: "camiseta"},
	}
	f := fixture{
		orders:   newMemoryOrders(),
		payments: &stubPayments{},
		cart:     &stubCart{},
		events:   &capturePublisher{},
	}
	f.svc = New(stubAuth{}, products, f.orders, f.payments, f.cart, f.events, zerolog.Nop())
	return f
}

func airMaxRequest() Request {
	return Request{
		CartItems: []Item{{
			ProductID: "p-airmax",
			Quantity:  2,
			Size:      "42",
			Color:     "default",
			Products:  &domain.ProductSummary{Name: "Air Max", Brand: "nike", Price: decimal.NewFromInt(120)},
		}},
		SuccessURL: "https://shop.example.com/?checkout=success",
		CancelURL:  "https://shop.example.com/?checkout=cancel",
	}
}

func TestCreateAirMaxScenario(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.Create(context.Background(), goodToken, airMaxRequest())
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", resp.SessionID)
	assert.NotEmpty(t, resp.URL)

	require.Len(t, f.orders.orders, 1)
	order := f.orders.orders[resp.OrderID]
	require.NotNil(t, order)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, "240.00", order.TotalAmount.StringFixed(2))
	assert.Equal(t, "user-1", order.UserID)

	lines := f.orders.lines[resp.OrderID]
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.True(t, lines[0].Price.Equal(decimal.NewFromInt(120)))
	assert.Equal(t, "Air Max", lines[0].ProductName)
	assert.Equal(t, "nike", lines[0].ProductBrand)

	require.Len(t, f.payments.requests, 1)
	sess := f.payments.requests[0]
	assert.Equal(t, resp.OrderID, sess.OrderID)
	assert.Equal(t, "user-1", sess.UserID)
	assert.Equal(t, int64(12000), sess.Lines[0].MinorUnits())

	require.Len(t, f.events.events, 1)
	assert.Equal(t, events.OrderPending, f.events.events[0].Type)
}

func TestCreateIgnoresSubmittedPrices(t *testing.T) {
	f := newFixture()
	req := airMaxRequest()
	req.CartItems[0].Products.Price = decimal.RequireFromString("0.01")

	resp, err := f.svc.Create(context.Background(), goodToken, req)
	require.NoError(t, err)
	assert.Equal(t, "240.00", f.orders.orders[resp.OrderID].TotalAmount.StringFixed(2))
	assert.True(t, f.orders.lines[resp.OrderID][0].Price.Equal(decimal.NewFromInt(120)))
}

func TestCreateTotalIsSumOfLines(t *testing.T) {
	f := newFixture()
	req := airMaxRequest()
	req.CartItems = append(req.CartItems, Item{ProductID: "p-tee", Quantity: 3, Size: "M"})

	resp, err := f.svc.Create(context.Background(), goodToken, req)
	require.NoError(t, err)

	order := f.orders.orders[resp.OrderID]
	assert.Equal(t, "299.97", order.TotalAmount.StringFixed(2))
	assert.True(t, order.TotalAmount.Equal(domain.OrderTotal(f.orders.lines[resp.OrderID])))
	assert.Equal(t, domain.DefaultColor, f.orders.lines[resp.OrderID][1].Color)
}

func TestCreateRejectsBadTokenWithoutWrites(t *testing.T) {
	for _, token := range []string{"", "forged"} {
		f := newFixture()
		_, err := f.svc.Create(context.Background(), token, airMaxRequest())
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		assert.Zero(t, f.orders.writes)
		assert.Empty(t, f.payments.requests)
	}
}

func TestCreateValidationWithoutWrites(t *testing.T) {
	cases := map[string]func(*Request){
		"empty cart":       func(r *Request) { r.CartItems = nil },
		"zero quantity":    func(r *Request) { r.CartItems[0].Quantity = 0 },
		"missing product":  func(r *Request) { r.CartItems[0].ProductID = "" },
		"unknown product":  func(r *Request) { r.CartItems[0].ProductID = "p-gone" },
		"missing size":     func(r *Request) { r.CartItems[0].Size = " " },
		"missing redirect": func(r *Request) { r.SuccessURL = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			req := airMaxRequest()
			mutate(&req)

			_, err := f.svc.Create(context.Background(), goodToken, req)
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
			assert.Zero(t, f.orders.writes)
			assert.Empty(t, f.payments.requests)
		})
	}
}

func TestCreateLineInsertFailureLeavesDetectableOrphan(t *testing.T) {
	f := newFixture()
	f.orders.linesErr = fmt.Errorf("%w: connection reset", domain.ErrStorage)

	_, err := f.svc.Create(context.Background(), goodToken, airMaxRequest())
	assert.ErrorIs(t, err, domain.ErrStorage)

	orphans := f.orders.orphaned()
	require.Len(t, orphans, 1)
	order := f.orders.orders[orphans[0]]
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, "240.00", order.TotalAmount.StringFixed(2))
	assert.Empty(t, f.orders.lines[order.ID])

	assert.Empty(t, f.payments.requests)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, events.OrderOrphaned, f.events.events[0].Type)
	assert.Equal(t, order.ID, f.events.events[0].OrderID)
}

func TestCreatePaymentFailureLeavesPendingOrder(t *testing.T) {
	f := newFixture()
	f.payments.err = errors.New("card_declined")

	_, err := f.svc.Create(context.Background(), goodToken, airMaxRequest())
	assert.ErrorIs(t, err, domain.ErrPaymentSession)

	require.Len(t, f.orders.orders, 1)
	orphans := f.orders.orphaned()
	require.Len(t, orphans, 1)
	order := f.orders.orders[orphans[0]]
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Len(t, f.orders.lines[order.ID], 1)
	assert.Empty(t, order.SessionID)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, events.OrderOrphaned, f.events.events[0].Type)
	assert.Equal(t, order.ID, f.events.events[0].OrderID)
	assert.Equal(t, "payment session not created", f.events.events[0].Reason)
}

func TestCreateRecordsSessionOnOrder(t *testing.T) {
	f := newFixture()
	resp, err := f.svc.Create(context.Background(), goodToken, airMaxRequest())
	require.NoError(t, err)

	assert.Equal(t, resp.SessionID, f.orders.orders[resp.OrderID].SessionID)
	assert.Empty(t, f.orders.orphaned())
}

func TestCreateOrderInsertFailure(t *testing.T) {
	f := newFixture()
	f.orders.createErr = fmt.Errorf("%w: timeout", domain.ErrStorage)

	_, err := f.svc.Create(context.Background(), goodToken, airMaxRequest())
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Empty(t, f.orders.orders)
	assert.Empty(t, f.payments.requests)
}

func TestConfirmCompletesOrderAndClearsCart(t *testing.T) {
	f := newFixture()
	resp, err := f.svc.Create(context.Background(), goodToken, airMaxRequest())
	require.NoError(t, err)

	order, err := f.svc.Confirm(context.Background(), payment.Event{
		Type:      payment.EventCheckoutCompleted,
		SessionID: resp.SessionID,
		OrderID:   resp.OrderID,
		UserID:    "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, order.Status)
	assert.Equal(t, []string{"user-1"}, f.cart.cleared)
	assert.Equal(t, events.OrderCompleted, f.events.events[len(f.events.events)-1].Type)

	// redelivery is a no-op
	_, err = f.svc.Confirm(context.Background(), payment.Event{OrderID: resp.OrderID, UserID: "user-1"})
	require.NoError(t, err)
	assert.Len(t, f.cart.cleared, 1)
}

func TestConfirmCartFailureLeavesOrderPendingForRedelivery(t *testing.T) {
	f := newFixture()
	resp, err := f.svc.Create(context.Background(), goodToken, airMaxRequest())
	require.NoError(t, err)
	evt := payment.Event{
		Type:      payment.EventCheckoutCompleted,
		SessionID: resp.SessionID,
		OrderID:   resp.OrderID,
		UserID:    "user-1",
	}

	f.cart.err = fmt.Errorf("%w: connection reset", domain.ErrStorage)
	_, err = f.svc.Confirm(context.Background(), evt)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Equal(t, domain.OrderStatusPending, f.orders.orders[resp.OrderID].Status)
	assert.Empty(t, f.cart.cleared)

	f.cart.err = nil
	order, err := f.svc.Confirm(context.Background(), evt)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, order.Status)
	assert.Equal(t, []string{"user-1"}, f.cart.cleared)
	assert.Equal(t, events.OrderCompleted, f.events.events[len(f.events.events)-1].Type)
}

func TestConfirmRejectsMismatchedOwner(t *testing.T) {
	f := newFixture()
	resp, err := f.svc.Create(context.Background(), goodToken, airMaxRequest())
	require.NoError(t, err)

	_, err = f.svc.Confirm(context.Background(), payment.Event{OrderID: resp.OrderID, UserID: "someone-else"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Equal(t, domain.OrderStatusPending, f.orders.orders[resp.OrderID].Status)
	assert.Empty(t, f.cart.cleared)

	_, err = f.svc.Confirm(context.Background(), payment.Event{OrderID: "missing", UserID: "user-1"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Confirm(context.Background(), payment.Event{})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/payment"
)

type authenticator interface {
	Verify(ctx context.Context, token string) (domain.Identity, error)
}

type productRepo interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

type orderRepo interface {
	Create(ctx context.Context, userID string, total decimal.Decimal) (*domain.Order, error)
	InsertLines(ctx context.Context, orderID string, lines []domain.OrderLine) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	MarkCompleted(ctx context.Context, id string) (*domain.Order, error)
	SetSession(ctx context.Context, id, sessionID string) error
}

type sessionCreator interface {
	CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error)
}

type cartClearer interface {
	Clear(ctx context.Context, userID string) error
}

type publisher interface {
	Publish(ctx context.Context, evt events.OrderEvent) error
}

// Service is the trusted checkout process. It is the only writer of orders and the
// only component that talks to the payment provider.
type Service struct {
	auth     authenticator
	products productRepo
	orders   orderRepo
	payments sessionCreator
	cart     cartClearer
	events   publisher
	logger   zerolog.Logger
}

func New(
	auth authenticator,
	products productRepo,
	orders orderRepo,
	payments sessionCreator,
	cart cartClearer,
	pub publisher,
	logger zerolog.Logger,
) *Service {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Service{
		auth:     auth,
		products: products,
		orders:   orders,
		payments: payments,
		cart:     cart,
		events:   pub,
		logger:   logger,
	}
}

// Item is one submitted cart line. Products is the client's joined copy of the product
// and is only used for logging price drift.
type Item struct {
	ProductID string                 `json:"product_id"`
	Quantity  int                    `json:"quantity"`
	Size      string                 `json:"size"`
	Color     string                 `json:"color"`
	Products  *domain.ProductSummary `json:"products,omitempty"`
}

type Request struct {
	CartItems  []Item `json:"cartItems"`
	SuccessURL string `json:"successUrl"`
	CancelURL  string `json:"cancelUrl"`
}

type Response struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
	OrderID   string `json:"-"`
}

// Create runs one checkout: authenticate, validate, price from catalog rows, persist the
// order and then its lines, and open a payment session tagged with the order.
//
// The order insert and the line insert are separate writes. A failed line insert leaves a
// pending order with no lines, and a failed session call leaves a pending order with no
// session id. Both are logged and published as order.orphaned.
func (s *Service) Create(ctx context.Context, token string, req Request) (*Response, error) {
	identity, err := s.auth.Verify(ctx, token)
	if err != nil {
		if !errors.Is(err, domain.ErrUnauthorized) {
			err = fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
		}
		return nil, err
	}

	if err := validate(req); err != nil {
		return nil, err
	}

	lines, err := s.price(ctx, req.CartItems)
	if err != nil {
		return nil, err
	}
	total := domain.OrderTotal(lines)

	order, err := s.orders.Create(ctx, identity.UserID, total)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", identity.UserID).Msg("checkout: create order")
		return nil, err
	}
	log := s.logger.With().Str("order_id", order.ID).Str("user_id", identity.UserID).Logger()

	if err := s.orders.InsertLines(ctx, order.ID, lines); err != nil {
		log.Error().Err(err).Msg("checkout: insert order lines; order left pending without lines")
		s.publish(ctx, events.OrderEvent{
			Type:    events.OrderOrphaned,
			OrderID: order.ID,
			UserID:  identity.UserID,
			Total:   total,
			Reason:  "order lines not written",
		})
		return nil, err
	}

	sess, err := s.payments.CreateSession(ctx, payment.SessionRequest{
		OrderID:       order.ID,
		UserID:        identity.UserID,
		CustomerEmail: identity.Email,
		Lines:         sessionLines(lines),
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
	})
	if err != nil {
		log.Error().Err(err).Msg("checkout: payment session; order left pending without session")
		s.publish(ctx, events.OrderEvent{
			Type:    events.OrderOrphaned,
			OrderID: order.ID,
			UserID:  identity.UserID,
			Total:   total,
			Reason:  "payment session not created",
		})
		if !errors.Is(err, domain.ErrPaymentSession) {
			err = fmt.Errorf("%w: %w", domain.ErrPaymentSession, err)
		}
		return nil, err
	}

	if err := s.orders.SetSession(ctx, order.ID, sess.ID); err != nil {
		// The session is live and its metadata still carries the order id, so the
		// webhook can complete the order. Only the orphan report sees the gap.
		log.Warn().Err(err).Str("session_id", sess.ID).Msg("checkout: record session id")
	}

	s.publish(ctx, events.OrderEvent{
		Type:      events.OrderPending,
		OrderID:   order.ID,
		UserID:    identity.UserID,
		Total:     total,
		SessionID: sess.ID,
	})
	log.Info().Str("session_id", sess.ID).Str("total", total.StringFixed(2)).Int("lines", len(lines)).Msg("checkout: session created")
	return &Response{SessionID: sess.ID, URL: sess.URL, OrderID: order.ID}, nil
}

func validate(req Request) error {
	if len(req.CartItems) == 0 {
		return fmt.Errorf("%w: no items in cart", domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(req.SuccessURL) == "" || strings.TrimSpace(req.CancelURL) == "" {
		return fmt.Errorf("%w: successUrl and cancelUrl required", domain.ErrInvalidRequest)
	}
	for i, it := range req.CartItems {
		if strings.TrimSpace(it.ProductID) == "" {
			return fmt.Errorf("%w: item %d: product_id required", domain.ErrInvalidRequest, i)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: item %d: quantity must be positive", domain.ErrInvalidRequest, i)
		}
		if strings.TrimSpace(it.Size) == "" {
			return fmt.Errorf("%w: item %d: size required", domain.ErrInvalidRequest, i)
		}
	}
	return nil
}

// price builds order lines from the catalog. Submitted prices are never trusted.
func (s *Service) price(ctx context.Context, items []Item) ([]domain.OrderLine, error) {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, strings.TrimSpace(it.ProductID))
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Msg("checkout: load products")
		return nil, err
	}

	lines := make([]domain.OrderLine, 0, len(items))
	for _, it := range items {
		p, ok := products[strings.TrimSpace(it.ProductID)]
		if !ok {
			return nil, fmt.Errorf("%w: product %s not found", domain.ErrInvalidRequest, it.ProductID)
		}
		if it.Products != nil && !it.Products.Price.Equal(p.Price) {
			s.logger.Warn().
				Str("product_id", p.ID).
				Str("submitted", it.Products.Price.String()).
				Str("catalog", p.Price.String()).
				Msg("checkout: submitted price ignored")
		}
		lines = append(lines, domain.OrderLine{
			ProductID:    p.ID,
			Quantity:     it.Quantity,
			Size:         strings.TrimSpace(it.Size),
			Color:        domain.NormalizeColor(strings.TrimSpace(it.Color)),
			Price:        p.Price,
			ProductName:  p.Name,
			ProductBrand: p.Brand,
			ImageURL:     p.ImageURL,
		})
	}
	return lines, nil
}

func sessionLines(lines []domain.OrderLine) []payment.LineItem {
	out := make([]payment.LineItem, 0, len(lines))
	for _, l := range lines {
		out = append(out, payment.LineItem{
			Name:       l.ProductName,
			Brand:      l.ProductBrand,
			ImageURL:   l.ImageURL,
			Size:       l.Size,
			Color:      l.Color,
			UnitAmount: l.Price,
			Quantity:   l.Quantity,
		})
	}
	return out
}

// Confirm clears the owner's cart and then completes the order after the provider
// reports a paid session. The cart goes first so a failed clear leaves the order
// pending and a redelivered event redoes both steps. Confirming an already
// completed order is a no-op.
func (s *Service) Confirm(ctx context.Context, evt payment.Event) (*domain.Order, error) {
	if evt.OrderID == "" || evt.UserID == "" {
		return nil, fmt.Errorf("%w: session metadata missing order_id or user_id", domain.ErrInvalidRequest)
	}
	order, err := s.orders.GetByID(ctx, evt.OrderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != evt.UserID {
		return nil, fmt.Errorf("%w: order %s does not belong to %s", domain.ErrInvalidRequest, evt.OrderID, evt.UserID)
	}
	if order.Status == domain.OrderStatusCompleted {
		return order, nil
	}

	if err := s.cart.Clear(ctx, evt.UserID); err != nil {
		s.logger.Error().Err(err).Str("order_id", evt.OrderID).Msg("checkout: clear cart; order left pending")
		return nil, err
	}
	order, err = s.orders.MarkCompleted(ctx, order.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", evt.OrderID).Msg("checkout: mark completed")
		return nil, err
	}
	s.publish(ctx, events.OrderEvent{
		Type:      events.OrderCompleted,
		OrderID:   order.ID,
		UserID:    order.UserID,
		Total:     order.TotalAmount,
		SessionID: evt.SessionID,
	})
	s.logger.Info().Str("order_id", order.ID).Str("session_id", evt.SessionID).Msg("checkout: order completed")
	return order, nil
}

// publish is best effort; events never fail a checkout.
func (s *Service) publish(ctx context.Context, evt events.OrderEvent) {
	evt.OccurredAt = time.Now().UTC()
	if err := s.events.Publish(ctx, evt); err != nil {
		s.logger.Warn().Err(err).Str("type", evt.Type).Str("order_id", evt.OrderID).Msg("checkout: publish event")
	}
}

package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderPending   = "order.pending"
	OrderOrphaned  = "order.orphaned"
	OrderCompleted = "order.completed"
)

// OrderEvent is the payload published on the order topic, keyed by order id.
type OrderEvent struct {
	Type       string          `json:"type"`
	OrderID    string          `json:"order_id"`
	UserID     string          `json:"user_id"`
	Total      decimal.Decimal `json:"total_amount"`
	SessionID  string          `json:"session_id,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, evt OrderEvent) error
	Close() error
}

// Noop discards events. Used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, OrderEvent) error { return nil }
func (Noop) Close() error                              { return nil }

package payment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// EventCheckoutCompleted is the provider event emitted once a session is paid.
const EventCheckoutCompleted = "checkout.session.completed"

const (
	MetadataOrderID = "order_id"
	MetadataUserID  = "user_id"
)

// LineItem is one priced line shown on the hosted payment page.
type LineItem struct {
	Name       string
	Brand      string
	ImageURL   string
	Size       string
	Color      string
	UnitAmount decimal.Decimal
	Quantity   int
}

// Description renders the secondary label under the line name.
func (l LineItem) Description() string {
	return fmt.Sprintf("%s - Talla: %s, Color: %s", l.Brand, l.Size, l.Color)
}

// MinorUnits converts the unit amount to cents, rounding half away from zero.
func (l LineItem) MinorUnits() int64 {
	return l.UnitAmount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

type SessionRequest struct {
	OrderID       string
	UserID        string
	CustomerEmail string
	Lines         []LineItem
	SuccessURL    string
	CancelURL     string
}

type Session struct {
	ID  string
	URL string
}

// Event is a verified provider notification reduced to what order confirmation needs.
type Event struct {
	ID        string
	Type      string
	SessionID string
	OrderID   string
	UserID    string
}

// Gateway creates hosted payment sessions and verifies provider webhooks.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	ParseEvent(payload []byte, signature string) (*Event, error)
}

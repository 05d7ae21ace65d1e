package storefront

import (
	"context"
	"fmt"
	"net/url"

	"storefront/internal/domain"
	"storefront/internal/service/checkout"
)

const returnParam = "checkout"

type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeSuccess Outcome = "success"
	OutcomeCancel  Outcome = "cancel"
)

type checkoutAPI interface {
	CreateCheckout(ctx context.Context, req checkout.Request) (*checkout.Response, error)
}

// Checkout starts payment for the signed-in user's cart and handles the provider's
// redirect back to the storefront.
type Checkout struct {
	api    checkoutAPI
	remote RemoteCart
	store  *CartStore
}

func NewCheckout(api checkoutAPI, remote RemoteCart, store *CartStore) *Checkout {
	return &Checkout{api: api, remote: remote, store: store}
}

// Initiate sends the authoritative remote cart to the checkout handler and returns the
// payment page URL to navigate to. snapshot is only used for the empty-cart fast path.
func (c *Checkout) Initiate(ctx context.Context, user *domain.Identity, snapshot []domain.CartLine, successURL, cancelURL string) (string, error) {
	if user == nil || user.UserID == "" {
		return "", domain.ErrAuthRequired
	}
	if len(snapshot) == 0 {
		return "", ErrEmptyCart
	}
	if c.remote == nil {
		return "", domain.ErrAuthRequired
	}
	lines, err := c.remote.Load(ctx)
	if err != nil {
		return "", &FetchError{Err: err}
	}
	if len(lines) == 0 {
		return "", ErrEmptyCart
	}

	items := make([]checkout.Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, checkout.Item{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Size:      l.Size,
			Color:     l.Color,
			Products:  l.Product,
		})
	}
	resp, err := c.api.CreateCheckout(ctx, checkout.Request{CartItems: items, SuccessURL: successURL, CancelURL: cancelURL})
	if err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", fmt.Errorf("%w: empty redirect url", domain.ErrPaymentSession)
	}
	return resp.URL, nil
}

type ReturnResult struct {
	Outcome Outcome
	Notice  string
	// URL is the current location with the checkout parameter removed.
	URL string
}

// HandleReturn inspects the current location for the provider's redirect parameter.
// On success the cart view is reset without re-querying; the server clears the cart.
func (c *Checkout) HandleReturn(location string) (ReturnResult, error) {
	u, err := url.Parse(location)
	if err != nil {
		return ReturnResult{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	q := u.Query()
	res := ReturnResult{Outcome: Outcome(q.Get(returnParam)), URL: location}
	switch res.Outcome {
	case OutcomeSuccess:
		res.Notice = "¡Pago completado! Tu pedido está confirmado."
		if c.store != nil {
			c.store.Reset()
		}
	case OutcomeCancel:
		res.Notice = "Pago cancelado. Tu carrito sigue disponible."
	default:
		return ReturnResult{Outcome: OutcomeNone, URL: location}, nil
	}
	q.Del(returnParam)
	u.RawQuery = q.Encode()
	res.URL = u.String()
	return res, nil
}

package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"

	"storefront/internal/domain"
)

type Stripe struct {
	api           *client.API
	currency      string
	webhookSecret string
	logger        zerolog.Logger
}

func NewStripe(secretKey, webhookSecret, currency string, logger zerolog.Logger) *Stripe {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Stripe{
		api:           api,
		currency:      strings.ToLower(currency),
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

func (s *Stripe) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("%w: no line items", domain.ErrPaymentSession)
	}
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		ClientReferenceID:  stripe.String(req.OrderID),
		LineItems:          s.lineItems(req.Lines),
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.Context = ctx
	params.AddMetadata(MetadataOrderID, req.OrderID)
	params.AddMetadata(MetadataUserID, req.UserID)

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", req.OrderID).Msg("stripe: create session")
		return nil, fmt.Errorf("%w: %w", domain.ErrPaymentSession, err)
	}
	return &Session{ID: sess.ID, URL: sess.URL}, nil
}

func (s *Stripe) lineItems(lines []LineItem) []*stripe.CheckoutSessionLineItemParams {
	out := make([]*stripe.CheckoutSessionLineItemParams, 0, len(lines))
	for _, l := range lines {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name:        stripe.String(l.Name),
			Description: stripe.String(l.Description()),
		}
		if l.ImageURL != "" {
			product.Images = stripe.StringSlice([]string{l.ImageURL})
		}
		out = append(out, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(s.currency),
				ProductData: product,
				UnitAmount:  stripe.Int64(l.MinorUnits()),
			},
			Quantity: stripe.Int64(int64(l.Quantity)),
		})
	}
	return out
}

// ParseEvent verifies the Stripe-Signature header and decodes checkout session events.
func (s *Stripe) ParseEvent(payload []byte, signature string) (*Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	out := &Event{ID: evt.ID, Type: string(evt.Type)}
	if !strings.HasPrefix(out.Type, "checkout.session.") {
		return out, nil
	}
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("%w: decode session: %w", domain.ErrInvalidRequest, err)
	}
	out.SessionID = sess.ID
	out.OrderID = sess.Metadata[MetadataOrderID]
	out.UserID = sess.Metadata[MetadataUserID]
	return out, nil
}

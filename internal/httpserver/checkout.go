package httpserver

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/payment"
	"storefront/internal/service/checkout"
)

const maxWebhookBody = 64 << 10

// createCheckout is the trusted checkout endpoint. Every failure is a JSON {error} body.
func (h *handlers) createCheckout(c *gin.Context) {
	token, err := auth.BearerToken(c.GetHeader("Authorization"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	var req checkout.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}
	resp, err := h.deps.Checkout.Create(c.Request.Context(), token, req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// paymentWebhook confirms paid orders. Events that can never succeed are acknowledged so
// the provider stops redelivering them; storage failures return 500 to get a retry.
func (h *handlers) paymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		abortWithError(c, fmt.Errorf("%w: read body: %v", domain.ErrInvalidRequest, err))
		return
	}
	evt, err := h.deps.Payments.ParseEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if evt.Type != payment.EventCheckoutCompleted {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	order, err := h.deps.Checkout.Confirm(c.Request.Context(), *evt)
	if err != nil {
		if status := statusFor(err); status < http.StatusInternalServerError {
			h.logger.Warn().Err(err).Str("event_id", evt.ID).Str("order_id", evt.OrderID).Msg("webhook: event not applied")
			c.JSON(http.StatusOK, gin.H{"received": true, "applied": false})
			return
		}
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "applied": true, "order_id": order.ID})
}

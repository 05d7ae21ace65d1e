package httpserver

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	cartsvc "storefront/internal/service/cart"
)

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *handlers) getCart(c *gin.Context) {
	identity, _ := identityFrom(c)
	lines, err := h.deps.Cart.Load(c.Request.Context(), identity.UserID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(lines))
}

func (h *handlers) addCartLine(c *gin.Context) {
	identity, _ := identityFrom(c)
	var in cartsvc.AddInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}
	line, err := h.deps.Cart.Add(c.Request.Context(), identity.UserID, in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, line)
}

func (h *handlers) setCartLineQuantity(c *gin.Context) {
	identity, _ := identityFrom(c)
	var in quantityRequest
	if err := c.ShouldBindJSON(&in); err != nil || in.Quantity == nil {
		abortWithError(c, fmt.Errorf("%w: quantity required", domain.ErrInvalidRequest))
		return
	}
	line, err := h.deps.Cart.SetQuantity(c.Request.Context(), identity.UserID, c.Param("lineId"), *in.Quantity)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if line == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, line)
}

func (h *handlers) removeCartLine(c *gin.Context) {
	identity, _ := identityFrom(c)
	if err := h.deps.Cart.Remove(c.Request.Context(), identity.UserID, c.Param("lineId")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) clearCart(c *gin.Context) {
	identity, _ := identityFrom(c)
	if err := h.deps.Cart.Clear(c.Request.Context(), identity.UserID); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

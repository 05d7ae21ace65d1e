package httpserver

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

// me returns the caller's identity and profile, creating the profile on first sight.
func (h *handlers) me(c *gin.Context) {
	identity, _ := identityFrom(c)
	resp := meResponse{User: identity, IsAdmin: slices.Contains(h.deps.AdminUserIDs, identity.UserID)}
	if h.deps.Profiles != nil {
		p, err := h.deps.Profiles.Ensure(c.Request.Context(), domain.Profile{
			ID:       identity.UserID,
			Email:    identity.Email,
			FullName: identity.FullName,
		})
		if err != nil {
			abortWithError(c, err)
			return
		}
		resp.Profile = p
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) myOrders(c *gin.Context) {
	identity, _ := identityFrom(c)
	orders, err := h.deps.Orders.ListByUser(c.Request.Context(), identity.UserID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newList(orders))
}

package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/service/admin"
)

const defaultOrphanAge = 15 * time.Minute

func (h *handlers) adminListProducts(c *gin.Context) {
	products, err := h.deps.Admin.ListProducts(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newList(products))
}

func (h *handlers) adminCreateProduct(c *gin.Context) {
	var in admin.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}
	p, err := h.deps.Admin.CreateProduct(c.Request.Context(), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *handlers) adminUpdateProduct(c *gin.Context) {
	var in admin.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}
	p, err := h.deps.Admin.UpdateProduct(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) adminDeleteProduct(c *gin.Context) {
	if err := h.deps.Admin.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) adminListBrands(c *gin.Context) {
	brands, err := h.deps.Admin.ListBrands(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newList(brands))
}

func (h *handlers) adminCreateBrand(c *gin.Context) {
	var in admin.BrandInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}
	b, err := h.deps.Admin.CreateBrand(c.Request.Context(), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *handlers) adminDeleteBrand(c *gin.Context) {
	if err := h.deps.Admin.DeleteBrand(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) adminAnalytics(c *gin.Context) {
	a, err := h.deps.Admin.Analytics(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// adminOrphanedOrders lists pending orders that never got their lines written or a payment session.
func (h *handlers) adminOrphanedOrders(c *gin.Context) {
	age := defaultOrphanAge
	if raw := c.Query("older_than"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			abortWithError(c, fmt.Errorf("%w: older_than must be a duration like 15m", domain.ErrInvalidRequest))
			return
		}
		age = d
	}
	orders, err := h.deps.Orders.ListOrphaned(c.Request.Context(), age)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newList(orders))
}

func (h *handlers) adminUploadImage(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		abortWithError(c, fmt.Errorf("%w: image file required", domain.ErrInvalidRequest))
		return
	}
	f, err := fh.Open()
	if err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}
	defer f.Close()
	url, err := h.deps.Images.Save(fh.Filename, f)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

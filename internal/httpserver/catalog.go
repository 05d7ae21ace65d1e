package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/service/catalog"
)

func (h *handlers) listProducts(c *gin.Context) {
	f := catalog.Filter{
		Search: c.Query("search"),
		Gender: c.DefaultQuery("gender", catalog.FilterAll),
		Brand:  c.DefaultQuery("brand", catalog.FilterAll),
	}
	products, err := h.deps.Catalog.ListProducts(c.Request.Context(), f)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newList(products))
}

func (h *handlers) getProduct(c *gin.Context) {
	p, err := h.deps.Catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, productDetail{Product: *p, Sizes: domain.SizesFor(p.Type)})
}

func (h *handlers) listBrands(c *gin.Context) {
	brands, err := h.deps.Catalog.ListBrands(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newList(brands))
}

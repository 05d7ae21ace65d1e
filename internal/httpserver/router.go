package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"storefront/internal/idempotency"
	"storefront/internal/imagestore"
	"storefront/internal/storefront"
)

var corsMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
var corsHeaders = []string{"Content-Type", "Authorization", "X-Client-Info", "Apikey", idempotency.Header}

// buildRouter wires routes for the API.
func buildRouter(logger zerolog.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.Catalog == nil || deps.Cart == nil || deps.Checkout == nil || deps.Admin == nil || deps.Auth == nil || deps.Orders == nil {
		return nil, errors.New("httpserver: catalog, cart, checkout, admin, orders and auth are required")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins:           true,
		AllowMethods:              corsMethods,
		AllowHeaders:              corsHeaders,
		MaxAge:                    12 * time.Hour,
		OptionsResponseStatusCode: http.StatusOK,
	}))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(readyChecks(db, deps.ReadyChecks), logger))

	if deps.UploadDir != "" {
		router.Static(imagestore.PublicPrefix, deps.UploadDir)
	}

	h := &handlers{deps: deps, logger: logger}

	// Trusted checkout process.
	checkoutChain := []gin.HandlerFunc{newRateLimiter(deps.CheckoutRatePerMinute).middleware()}
	if deps.Idempotency != nil {
		checkoutChain = append(checkoutChain, idempotency.Middleware(deps.Idempotency, logger))
	}
	checkoutChain = append(checkoutChain, h.createCheckout)
	router.POST(storefront.CheckoutPath, checkoutChain...)
	router.OPTIONS(storefront.CheckoutPath, preflightHandler)

	if deps.Payments != nil {
		router.POST("/webhooks/payment", h.paymentWebhook)
	}

	api := router.Group("/api")
	api.GET("/products", h.listProducts)
	api.GET("/products/:id", h.getProduct)
	api.GET("/brands", h.listBrands)

	me := api.Group("/me", requireUser(deps.Auth))
	me.GET("", h.me)
	me.GET("/orders", h.myOrders)
	me.GET("/cart", h.getCart)
	me.DELETE("/cart", h.clearCart)
	me.POST("/cart/lines", h.addCartLine)
	me.PATCH("/cart/lines/:lineId", h.setCartLineQuantity)
	me.DELETE("/cart/lines/:lineId", h.removeCartLine)

	adm := api.Group("/admin", requireUser(deps.Auth), requireAdmin(deps.AdminUserIDs))
	adm.GET("/products", h.adminListProducts)
	adm.POST("/products", h.adminCreateProduct)
	adm.PUT("/products/:id", h.adminUpdateProduct)
	adm.DELETE("/products/:id", h.adminDeleteProduct)
	adm.GET("/brands", h.adminListBrands)
	adm.POST("/brands", h.adminCreateBrand)
	adm.DELETE("/brands/:id", h.adminDeleteBrand)
	adm.GET("/analytics", h.adminAnalytics)
	adm.GET("/orders/orphaned", h.adminOrphanedOrders)
	if deps.Images != nil {
		adm.POST("/images", h.adminUploadImage)
	}

	return router, nil
}

type handlers struct {
	deps   Deps
	logger zerolog.Logger
}

// preflightHandler answers OPTIONS that arrive without an Origin header, which the
// CORS middleware passes through.
func preflightHandler(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Client-Info, Apikey")
	c.Status(http.StatusOK)
}

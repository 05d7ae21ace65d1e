package httpserver

import (
	"context"
	"io"
	"time"

	"storefront/internal/domain"
	"storefront/internal/idempotency"
	"storefront/internal/payment"
	"storefront/internal/service/admin"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/service/catalog"
	"storefront/internal/service/checkout"
)

type catalogService interface {
	ListProducts(ctx context.Context, f catalog.Filter) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListBrands(ctx context.Context) ([]domain.Brand, error)
}

type cartService interface {
	Load(ctx context.Context, userID string) ([]domain.CartLine, error)
	Add(ctx context.Context, userID string, in cartsvc.AddInput) (*domain.CartLine, error)
	SetQuantity(ctx context.Context, userID, lineID string, quantity int) (*domain.CartLine, error)
	Remove(ctx context.Context, userID, lineID string) error
	Clear(ctx context.Context, userID string) error
}

type checkoutService interface {
	Create(ctx context.Context, token string, req checkout.Request) (*checkout.Response, error)
	Confirm(ctx context.Context, evt payment.Event) (*domain.Order, error)
}

type adminService interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListBrands(ctx context.Context) ([]domain.Brand, error)
	CreateProduct(ctx context.Context, in admin.ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, in admin.ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	CreateBrand(ctx context.Context, in admin.BrandInput) (*domain.Brand, error)
	DeleteBrand(ctx context.Context, id string) error
	Analytics(ctx context.Context) (*admin.Analytics, error)
}

type orderReader interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListOrphaned(ctx context.Context, olderThan time.Duration) ([]domain.Order, error)
}

type profileStore interface {
	Ensure(ctx context.Context, p domain.Profile) (*domain.Profile, error)
}

type tokenVerifier interface {
	Verify(ctx context.Context, token string) (domain.Identity, error)
}

type eventParser interface {
	ParseEvent(payload []byte, signature string) (*payment.Event, error)
}

type imageSaver interface {
	Save(filename string, r io.Reader) (string, error)
}

// Deps bundles the collaborators the router needs. Idempotency and Images are optional.
type Deps struct {
	Catalog     catalogService
	Cart        cartService
	Checkout    checkoutService
	Admin       adminService
	Orders      orderReader
	Profiles    profileStore
	Auth        tokenVerifier
	Payments    eventParser
	Images      imageSaver
	Idempotency idempotency.Store

	AdminUserIDs          []string
	CheckoutRatePerMinute int
	UploadDir             string
	// ReadyChecks run after the database check on /readyz.
	ReadyChecks []ReadyCheck
}

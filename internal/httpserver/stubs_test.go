package httpserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"storefront/internal/domain"
	"storefront/internal/payment"
	"storefront/internal/service/admin"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/service/catalog"
	"storefront/internal/service/checkout"
)

type stubAuth struct{}

func (stubAuth) Verify(_ context.Context, token string) (domain.Identity, error) {
	switch token {
	case "user-token":
		return domain.Identity{UserID: "u1", Email: "u1@example.com"}, nil
	case "admin-token":
		return domain.Identity{UserID: "admin-1"}, nil
	}
	return domain.Identity{}, domain.ErrUnauthorized
}

type stubCatalog struct {
	products []domain.Product
	brands   []domain.Brand
	filter   catalog.Filter
}

func (s *stubCatalog) ListProducts(_ context.Context, f catalog.Filter) ([]domain.Product, error) {
	s.filter = f
	return f.Apply(s.products), nil
}

func (s *stubCatalog) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubCatalog) ListBrands(context.Context) ([]domain.Brand, error) { return s.brands, nil }

type stubCart struct {
	lines   []domain.CartLine
	userIDs []string
	err     error
}

func (s *stubCart) Load(_ context.Context, userID string) ([]domain.CartLine, error) {
	s.userIDs = append(s.userIDs, userID)
	return s.lines, s.err
}

func (s *stubCart) Add(_ context.Context, userID string, in cartsvc.AddInput) (*domain.CartLine, error) {
	s.userIDs = append(s.userIDs, userID)
	if s.err != nil {
		return nil, s.err
	}
	return &domain.CartLine{ID: "l1", UserID: userID, ProductID: in.ProductID, Size: in.Size, Quantity: 1, Color: domain.DefaultColor}, nil
}

func (s *stubCart) SetQuantity(_ context.Context, userID, lineID string, quantity int) (*domain.CartLine, error) {
	s.userIDs = append(s.userIDs, userID)
	if s.err != nil {
		return nil, s.err
	}
	if quantity <= 0 {
		return nil, nil
	}
	return &domain.CartLine{ID: lineID, UserID: userID, Quantity: quantity}, nil
}

func (s *stubCart) Remove(_ context.Context, userID, _ string) error {
	s.userIDs = append(s.userIDs, userID)
	return s.err
}

func (s *stubCart) Clear(_ context.Context, userID string) error {
	s.userIDs = append(s.userIDs, userID)
	return s.err
}

type stubCheckout struct {
	calls      int
	tokens     []string
	requests   []checkout.Request
	err        error
	confirmed  []payment.Event
	confirmErr error
}

func (s *stubCheckout) Create(_ context.Context, token string, req checkout.Request) (*checkout.Response, error) {
	s.calls++
	s.tokens = append(s.tokens, token)
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return &checkout.Response{SessionID: "cs_1", URL: "https://pay.example.com/cs_1", OrderID: "o1"}, nil
}

func (s *stubCheckout) Confirm(_ context.Context, evt payment.Event) (*domain.Order, error) {
	s.confirmed = append(s.confirmed, evt)
	if s.confirmErr != nil {
		return nil, s.confirmErr
	}
	return &domain.Order{ID: evt.OrderID, UserID: evt.UserID, Status: domain.OrderStatusCompleted}, nil
}

type stubAdmin struct {
	deleteBrandErr error
	created        []admin.ProductInput
}

func (s *stubAdmin) ListProducts(context.Context) ([]domain.Product, error) { return nil, nil }
func (s *stubAdmin) ListBrands(context.Context) ([]domain.Brand, error)     { return nil, nil }

func (s *stubAdmin) CreateProduct(_ context.Context, in admin.ProductInput) (*domain.Product, error) {
	s.created = append(s.created, in)
	return &domain.Product{ID: "p-new", Name: in.Name, Brand: in.Brand, Price: in.Price}, nil
}

func (s *stubAdmin) UpdateProduct(_ context.Context, id string, in admin.ProductInput) (*domain.Product, error) {
	return &domain.Product{ID: id, Name: in.Name}, nil
}

func (s *stubAdmin) DeleteProduct(context.Context, string) error { return nil }

func (s *stubAdmin) CreateBrand(_ context.Context, in admin.BrandInput) (*domain.Brand, error) {
	return &domain.Brand{ID: "b1", Name: in.Name, DisplayName: in.DisplayName}, nil
}

func (s *stubAdmin) DeleteBrand(context.Context, string) error { return s.deleteBrandErr }

func (s *stubAdmin) Analytics(context.Context) (*admin.Analytics, error) {
	return &admin.Analytics{RegisteredUsers: 7}, nil
}

type stubOrders struct {
	orders    []domain.Order
	olderThan time.Duration
}

func (s *stubOrders) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubOrders) ListOrphaned(_ context.Context, olderThan time.Duration) ([]domain.Order, error) {
	s.olderThan = olderThan
	return nil, nil
}

type stubProfiles struct{}

func (stubProfiles) Ensure(_ context.Context, p domain.Profile) (*domain.Profile, error) {
	return &p, nil
}

type stubPayments struct {
	evt *payment.Event
	err error
}

func (s stubPayments) ParseEvent([]byte, string) (*payment.Event, error) { return s.evt, s.err }

type stubImages struct{ names []string }

func (s *stubImages) Save(filename string, r io.Reader) (string, error) {
	s.names = append(s.names, filename)
	_, _ = io.Copy(io.Discard, r)
	return "http://files/products/" + filename, nil
}

func testDeps() Deps {
	return Deps{
		Catalog:      &stubCatalog{},
		Cart:         &stubCart{},
		Checkout:     &stubCheckout{},
		Admin:        &stubAdmin{},
		Orders:       &stubOrders{},
		Profiles:     stubProfiles{},
		Auth:         stubAuth{},
		AdminUserIDs: []string{"admin-1"},
	}
}

func newTestRouter(t *testing.T, deps Deps) *gin.Engine {
	t.Helper()
	router, err := buildRouter(zerolog.Nop(), nil, deps)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	gin.SetMode(gin.TestMode)
	return router
}

func newJSONRequest(method, path, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func record(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func serve(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := newJSONRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return record(router, req)
}

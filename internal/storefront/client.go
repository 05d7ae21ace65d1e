package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/service/admin"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/service/catalog"
	"storefront/internal/service/checkout"
)

// CheckoutPath is where the trusted checkout handler listens.
const CheckoutPath = "/functions/v1/create-checkout"

// Client talks to the storefront API on behalf of one signed-in user.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// WithToken returns a copy of the client that sends the bearer token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

type listResponse[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

type cartResponse struct {
	Items []domain.CartLine `json:"items"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (c *Client) ListProducts(ctx context.Context, f catalog.Filter) ([]domain.Product, error) {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Gender != "" {
		q.Set("gender", f.Gender)
	}
	if f.Brand != "" {
		q.Set("brand", f.Brand)
	}
	path := "/api/products"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out listResponse[domain.Product]
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) ListBrands(ctx context.Context) ([]domain.Brand, error) {
	var out listResponse[domain.Brand]
	if err := c.do(ctx, http.MethodGet, "/api/brands", nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) Load(ctx context.Context) ([]domain.CartLine, error) {
	var out cartResponse
	if err := c.do(ctx, http.MethodGet, "/api/me/cart", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) Add(ctx context.Context, in cartsvc.AddInput) (*domain.CartLine, error) {
	var out domain.CartLine
	if err := c.do(ctx, http.MethodPost, "/api/me/cart/lines", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SetQuantity(ctx context.Context, lineID string, quantity int) error {
	return c.do(ctx, http.MethodPatch, "/api/me/cart/lines/"+url.PathEscape(lineID), quantityRequest{Quantity: quantity}, nil)
}

func (c *Client) Remove(ctx context.Context, lineID string) error {
	return c.do(ctx, http.MethodDelete, "/api/me/cart/lines/"+url.PathEscape(lineID), nil, nil)
}

func (c *Client) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var out listResponse[domain.Order]
	if err := c.do(ctx, http.MethodGet, "/api/me/orders", nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) Analytics(ctx context.Context) (*admin.Analytics, error) {
	var out admin.Analytics
	if err := c.do(ctx, http.MethodGet, "/api/admin/analytics", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCheckout calls the trusted checkout handler.
func (c *Client) CreateCheckout(ctx context.Context, req checkout.Request) (*checkout.Response, error) {
	var out checkout.Response
	if err := c.do(ctx, http.MethodPost, CheckoutPath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", domain.ErrStorage, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var e struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(raw))
		}
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s (status %d): %w", method, path, resp.StatusCode, err)
	}
	return nil
}

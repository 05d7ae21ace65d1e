package storefront

import (
	"errors"
	"fmt"
	"net/http"

	"storefront/internal/domain"
)

// ErrEmptyCart is returned when checkout starts with no lines.
var ErrEmptyCart = fmt.Errorf("%w: cart is empty", domain.ErrInvalidRequest)

// FetchError reports that remote cart state could not be loaded. The store falls back
// to an empty cart when it happens.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return "fetch cart: " + e.Err.Error() }

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == domain.ErrFetch }

// APIError is a non-2xx response from the storefront API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Unwrap maps the status back to the error taxonomy.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domain.ErrInvalidRequest
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusConflict:
		return domain.ErrConflict
	case http.StatusBadGateway:
		return domain.ErrPaymentSession
	default:
		return domain.ErrStorage
	}
}

func isNotFound(err error) bool { return errors.Is(err, domain.ErrNotFound) }

package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a unique constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrAuthRequired is returned when an operation needs a signed-in user and none is present.
	ErrAuthRequired = errors.New("authentication required")
	// ErrUnauthorized is returned when a bearer credential is missing or invalid.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidRequest covers user-correctable input problems (empty cart, bad fields).
	ErrInvalidRequest = errors.New("invalid request")
	// ErrConflict is returned when an operation is blocked by existing references.
	ErrConflict = errors.New("conflict")
	// ErrStorage wraps failures of the storage collaborator.
	ErrStorage = errors.New("storage error")
	// ErrFetch wraps failures to load remote state.
	ErrFetch = errors.New("fetch error")
	// ErrPaymentSession is returned when the payment collaborator rejects a session request.
	ErrPaymentSession = errors.New("payment session error")
)

package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrNetwork covers transport failures and unsuccessful catalog responses.
	ErrNetwork = errors.New("network error")
	// ErrDuplicateEmail is returned by sign-up when the email is already registered.
	ErrDuplicateEmail = errors.New("user with this email already exists")
	// ErrNotAuthenticated is returned when an operation needs a signed-in identity.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrMalformedPersistedData marks stored values that could not be parsed.
	ErrMalformedPersistedData = errors.New("malformed persisted data")
	// ErrEmptyCart is returned by checkout when there is nothing to order.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidInput wraps validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

package domain

import "errors"

// Every error returned by the service layer wraps one of these, so callers
// can branch with errors.Is regardless of the message.
var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrSelfPurchase       = errors.New("cannot buy your own product")
	ErrProductUnavailable = errors.New("product is not available")
	ErrDuplicateCheckout  = errors.New("checkout already processed")
)

package shop

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidQuantity       = errors.New("quantity must be at least 1")
	ErrInvalidCustomization  = errors.New("invalid customization")
	ErrInsufficientPoints    = errors.New("not enough points")
	ErrEmptyCart             = errors.New("cart is empty")
	ErrMissingPaymentDetails = errors.New("card number, expiry and cvv are required")
	ErrInvalidPaymentMethod  = errors.New("unknown payment method")
	ErrNotSignedIn           = errors.New("customer is not signed in")
	ErrAlreadyRegistered     = errors.New("customer already registered")
	ErrInvalidCustomer       = errors.New("name and email are required")
	ErrInvalidMenuItem       = errors.New("menu item needs a name, a known category and a non-negative price")
	ErrInvalidStatus         = errors.New("unknown order status")
)

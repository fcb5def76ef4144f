package models

import "errors"

// Domain error taxonomy. All of these are caller-correctable conditions;
// anything else bubbling out of the services is an infrastructure fault.
var (
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrCustomerInactive  = errors.New("customer is inactive")
	ErrEmptyOrder        = errors.New("order must contain at least one item")
	ErrInvalidQuantity   = errors.New("item quantity must be at least 1")
	ErrProductNotFound   = errors.New("product not found")
	ErrProductInactive   = errors.New("product is inactive")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOrderNotFound     = errors.New("order not found")
	ErrUnknownStatus     = errors.New("unknown order status")
	ErrIllegalTransition = errors.New("illegal status transition")
)

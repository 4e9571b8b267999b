package domain

import "errors"

var (
	ErrNonPositiveAmount  = errors.New("amount must be positive")
	ErrNegativePoints     = errors.New("points value must be non-negative")
	ErrNegativePrice      = errors.New("price must be non-negative")
	ErrItemNameEmpty      = errors.New("item name must not be empty")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrItemNotFound       = errors.New("shop item not found")
	ErrSoldOut            = errors.New("shop item is sold out")
)

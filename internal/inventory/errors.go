package inventory

import "errors"

var (
	ErrRefillNotFound   = errors.New("refill record not found")
	ErrMedicineNotFound = errors.New("medicine not found")
	ErrInvalidQuantity  = errors.New("refill quantity must be a positive integer")
)

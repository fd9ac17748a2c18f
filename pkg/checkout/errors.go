package checkout

import (
	"errors"
	"fmt"

	"metitejidos.com.ar/storefront/pkg/global"
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrEmptyCart              = errors.New("cart is empty")
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrStockConflict          = errors.New("stock changed")
	ErrServiceUnavailable     = errors.New("service unavailable")
)

// ValidationError carries the field errors of a rejected submission. It
// matches ErrValidation and unwraps to its cause, if any.
type ValidationError struct {
	Fields []global.ValidationError
	Err    error
}

func NewValidationError(fields []global.ValidationError) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	if len(e.Fields) == 1 {
		return e.Fields[0].Message
	}
	return fmt.Sprintf("%s: %d invalid fields", ErrValidation, len(e.Fields))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func emptyCartError() *ValidationError {
	return &ValidationError{
		Fields: []global.ValidationError{{Field: "orderItems", Message: ErrEmptyCart.Error(), Code: "empty_cart"}},
		Err:    ErrEmptyCart,
	}
}

// StockConflictError is returned when an order asks for more units than the
// product has left at creation time.
type StockConflictError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("%s: %q has %d left, %d requested", ErrStockConflict, e.Name, e.Available, e.Requested)
}

func (e *StockConflictError) Is(target error) bool {
	return target == ErrStockConflict
}

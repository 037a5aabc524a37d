package variants

import (
	"errors"
	"fmt"
)

// IncompatibleSelectionError is returned when a purchase names a size or
// colour the product cannot currently supply, or omits one it requires.
type IncompatibleSelectionError struct {
	Size   string
	Color  string
	Reason string
}

// Error implements the error interface for IncompatibleSelectionError
func (e *IncompatibleSelectionError) Error() string {
	return fmt.Sprintf("incompatible selection: size=%q, color=%q, reason=%s", e.Size, e.Color, e.Reason)
}

// Is allows proper error type checking with errors.Is()
func (e *IncompatibleSelectionError) Is(target error) bool {
	_, ok := target.(*IncompatibleSelectionError)
	return ok
}

// InsufficientStockError is returned when the requested quantity exceeds the
// stock of the selected size/colour.
type InsufficientStockError struct {
	Size      string
	Color     string
	Requested int
	Available int
}

// Error implements the error interface for InsufficientStockError
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: size=%q, color=%q, requested=%d, available=%d",
		e.Size, e.Color, e.Requested, e.Available)
}

// Is allows proper error type checking with errors.Is()
func (e *InsufficientStockError) Is(target error) bool {
	_, ok := target.(*InsufficientStockError)
	return ok
}

// InvalidQuantityError is returned when the requested quantity is below one.
type InvalidQuantityError struct {
	Quantity int
}

// Error implements the error interface for InvalidQuantityError
func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity: %d, must be at least 1", e.Quantity)
}

// Is allows proper error type checking with errors.Is()
func (e *InvalidQuantityError) Is(target error) bool {
	_, ok := target.(*InvalidQuantityError)
	return ok
}

// malformedFieldError marks a raw field that could not be decoded. It never
// leaves this package: resolution moves on to the next source instead.
type malformedFieldError struct {
	Field string
	Err   error
}

func (e *malformedFieldError) Error() string {
	return fmt.Sprintf("malformed field %s: %v", e.Field, e.Err)
}

func (e *malformedFieldError) Unwrap() error {
	return e.Err
}

// errAbsent reports a field that is missing, null or empty.
var errAbsent = errors.New("field absent")

// NewIncompatibleSelectionError creates a new IncompatibleSelectionError
func NewIncompatibleSelectionError(size, color, reason string) error {
	return &IncompatibleSelectionError{Size: size, Color: color, Reason: reason}
}

// NewInsufficientStockError creates a new InsufficientStockError
func NewInsufficientStockError(size, color string, requested, available int) error {
	return &InsufficientStockError{
		Size:      size,
		Color:     color,
		Requested: requested,
		Available: available,
	}
}

// NewInvalidQuantityError creates a new InvalidQuantityError
func NewInvalidQuantityError(quantity int) error {
	return &InvalidQuantityError{Quantity: quantity}
}

// IsIncompatibleSelectionError checks if an error is an IncompatibleSelectionError
func IsIncompatibleSelectionError(err error) bool {
	var ise *IncompatibleSelectionError
	return errors.As(err, &ise)
}

// IsInsufficientStockError checks if an error is an InsufficientStockError
func IsInsufficientStockError(err error) bool {
	var ise *InsufficientStockError
	return errors.As(err, &ise)
}

// IsInvalidQuantityError checks if an error is an InvalidQuantityError
func IsInvalidQuantityError(err error) bool {
	var iqe *InvalidQuantityError
	return errors.As(err, &iqe)
}

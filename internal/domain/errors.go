package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuantity is returned when a requested quantity falls outside
	// the accepted range
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 100")

	// ErrEmptyCart is returned when checkout is attempted with no cart lines
	ErrEmptyCart = errors.New("cart is empty")

	// ErrUnauthorized is returned when an operation targets a resource the
	// acting identity does not own
	ErrUnauthorized = errors.New("not authorized to access this resource")

	// ErrNotCancellable is returned when cancellation is attempted on an
	// order that is no longer pending or processing
	ErrNotCancellable = errors.New("order can no longer be cancelled")

	// ErrCheckoutFailed is the generic failure surfaced when the order
	// transaction aborts; the underlying cause is not distinguished
	ErrCheckoutFailed = errors.New("an error occurred during checkout, please try again")
)

// StockExceededError reports a requested quantity beyond current stock. It
// carries enough information to name the offending product and its remaining
// stock in a user-facing message.
type StockExceededError struct {
	ProductName string
	Available   int
}

func (e *StockExceededError) Error() string {
	return fmt.Sprintf("not enough stock for %s, only %d available", e.ProductName, e.Available)
}

// IsStockExceeded reports whether err is a StockExceededError and returns it
func IsStockExceeded(err error) (*StockExceededError, bool) {
	var se *StockExceededError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

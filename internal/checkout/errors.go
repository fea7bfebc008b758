package checkout

import "fmt"

// ValidationError rejects malformed checkout input before any persistence.
type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string {
	return e.Msg
}

// ProductNotFoundError reports a cart line whose reference resolved to no
// product under either addressing scheme.
type ProductNotFoundError struct {
	Ref string
}

func (e ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.Ref)
}

// InsufficientStockError names the product that could not cover the
// requested quantity.
type InsufficientStockError struct {
	Name      string
	Requested int
	Available int
}

func (e InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product: %s", e.Name)
}

// TransitionError rejects an order status change the state machine does
// not allow.
type TransitionError struct {
	From string
	To   string
}

func (e TransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

// StorageError wraps an underlying persistence failure, opaque to callers.
type StorageError struct {
	Err error
}

func (e StorageError) Error() string {
	return "storage error: " + e.Err.Error()
}

func (e StorageError) Unwrap() error {
	return e.Err
}

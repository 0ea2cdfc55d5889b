package cart

import "errors"

var (
	// ErrAuthRequired tells the caller to route to login. It is a
	// gating decision, not a navigation action.
	ErrAuthRequired    = errors.New("authentication required")
	ErrEmptyCart       = errors.New("cart is empty, nothing to checkout")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrItemNotFound    = errors.New("item not found in cart")
)

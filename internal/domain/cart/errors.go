package cart

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Sentinel errors for cart operations. All of them are client errors: the
// request was well-formed but the cart or its inputs were not in a state that
// allows the operation.
var (
	ErrItemNotFound         = errors.New("item not found in cart")
	ErrInvalidQuantity      = errors.New("quantity must be greater than 0")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrCouponAlreadyApplied = errors.New("a coupon is already applied to this cart")
	ErrNoCouponApplied      = errors.New("no coupon applied to this cart")
	ErrCouponInvalid        = errors.New("coupon is invalid or expired")
)

// InsufficientStockError indicates the requested quantity exceeds the
// product's available stock, counting what is already in the cart.
type InsufficientStockError struct {
	ProductID string
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("only %d items of product %s available in stock", e.Available, e.ProductID)
}

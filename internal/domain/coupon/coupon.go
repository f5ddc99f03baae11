// Package coupon defines percentage discount coupons and their lookup
// interface. A coupon applies a flat percentage to a cart's total price and
// optionally expires at a fixed time.
package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when no coupon exists for a code.
	ErrNotFound = errors.New("coupon not found")
	// ErrExists is returned when creating a coupon whose code is taken.
	ErrExists = errors.New("coupon already exists")
)

// Coupon is a percentage discount identified by its code. A nil ExpiresAt
// means the coupon never expires.
type Coupon struct {
	Code            string
	DiscountPercent decimal.Decimal
	ExpiresAt       *time.Time
	CreatedAt       time.Time
}

// Expired reports whether the coupon is past its expiry at the given time.
func (c *Coupon) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// Repository defines persistence operations for coupons.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	Create(ctx context.Context, c *Coupon) error
	List(ctx context.Context) ([]Coupon, error)
	Delete(ctx context.Context, code string) error
}

// Lookup resolves a coupon code to an active, unexpired coupon.
type Lookup interface {
	FindActiveByCode(ctx context.Context, code string, now time.Time) (*Coupon, error)
}

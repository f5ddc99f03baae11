package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/karimelsayed/shopgo/internal/domain/coupon"
)

const (
	getCouponByCodeSQL = `SELECT code, discount_percent, expires_at, created_at
		FROM coupons WHERE UPPER(code) = UPPER($1)`

	createCouponSQL = `INSERT INTO coupons (code, discount_percent, expires_at)
		VALUES ($1, $2, $3)`

	listCouponsSQL = `SELECT code, discount_percent, expires_at, created_at
		FROM coupons ORDER BY created_at`

	deleteCouponSQL = `DELETE FROM coupons WHERE UPPER(code) = UPPER($1)`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
// Codes match case-insensitively.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up a coupon by its code. Returns coupon.ErrNotFound when
// no such coupon exists; expiry is the caller's concern.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &c, nil
}

// Create inserts a new coupon. Returns coupon.ErrExists for duplicate codes.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.pool.Exec(ctx, createCouponSQL, c.Code, c.DiscountPercent, c.ExpiresAt)
	if err != nil {
		if isUniqueViolation(err) {
			return coupon.ErrExists
		}
		return fmt.Errorf("creating coupon %q: %w", c.Code, err)
	}
	return nil
}

// List returns all coupons in creation order.
func (r *CouponRepository) List(ctx context.Context) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listCouponsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	return pgx.CollectRows(rows, scanCoupon)
}

// Delete removes a coupon by code. Returns coupon.ErrNotFound when no coupon
// matched.
func (r *CouponRepository) Delete(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, deleteCouponSQL, code)
	if err != nil {
		return fmt.Errorf("deleting coupon %q: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c         coupon.Coupon
		percent   decimal.Decimal
		expiresAt *time.Time
	)
	err := row.Scan(&c.Code, &percent, &expiresAt, &c.CreatedAt)
	c.DiscountPercent = percent
	c.ExpiresAt = expiresAt
	return c, err
}

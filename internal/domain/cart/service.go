package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/karimelsayed/shopgo/internal/domain/coupon"
	"github.com/karimelsayed/shopgo/internal/domain/product"
	"github.com/karimelsayed/shopgo/internal/domain/user"
)

// ErrNotFound is returned by a Store when no cart exists for an owner.
// Service callers never see it: carts are created lazily on first access.
var ErrNotFound = errors.New("cart not found")

// Store persists carts keyed by owner. One record per owner; Save overwrites
// the whole document (last write wins, no optimistic concurrency token).
type Store interface {
	FindByOwner(ctx context.Context, ownerID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
}

// Service coordinates the cart aggregate with its external collaborators:
// the product catalog (stock and price snapshots), the coupon lookup, and
// the owner's points ledger. It enforces every precondition the aggregate
// itself cannot check, and persists the cart after each mutation.
type Service struct {
	carts    Store
	products product.Repository
	coupons  coupon.Lookup
	users    user.Repository
	now      func() time.Time
}

// NewService creates a cart Service with the required collaborators.
func NewService(carts Store, products product.Repository, coupons coupon.Lookup, users user.Repository) *Service {
	return &Service{
		carts:    carts,
		products: products,
		coupons:  coupons,
		users:    users,
		now:      time.Now,
	}
}

// Get returns the owner's cart, creating and persisting an empty one on
// first access.
func (s *Service) Get(ctx context.Context, ownerID string) (*Cart, error) {
	return s.findOrCreate(ctx, ownerID)
}

// AddItem adds a product to the owner's cart after checking it exists and
// has enough stock to cover the requested quantity on top of whatever the
// cart already holds. The product's current price, name, and image are
// captured as the line snapshot.
func (s *Service) AddItem(ctx context.Context, ownerID, productID string, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %s", productID)
	}

	c, err := s.findOrCreate(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	inCart := 0
	if line := c.findLine(productID); line != nil {
		inCart = line.Quantity
	}
	if inCart+quantity > p.Stock {
		return nil, &InsufficientStockError{ProductID: productID, Available: p.Stock - inCart}
	}

	c.AddItem(p.ID, p.Name, p.ImageCover, p.Price, quantity)
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

// UpdateItemQuantity sets an item's quantity to an absolute value; zero
// removes the line. The stock check is skipped when the product has since
// disappeared from the catalog, the line itself still updates.
func (s *Service) UpdateItemQuantity(ctx context.Context, ownerID, productID string, quantity int) (*Cart, error) {
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	c, err := s.findOrCreate(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if c.findLine(productID) == nil {
		return nil, ErrItemNotFound
	}

	if quantity > 0 {
		p, err := s.products.GetByID(ctx, productID)
		switch {
		case err == nil:
			if quantity > p.Stock {
				return nil, &InsufficientStockError{ProductID: productID, Available: p.Stock}
			}
		case errors.Is(err, product.ErrNotFound):
			// Item was added before the product vanished; allow the update.
		default:
			return nil, errors.Wrapf(err, "get product %s", productID)
		}
	}

	if err := c.UpdateItemQuantity(productID, quantity); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

// RemoveItem removes a product from the cart. It returns ErrItemNotFound when
// the product was not in the cart.
func (s *Service) RemoveItem(ctx context.Context, ownerID, productID string) (*Cart, error) {
	c, err := s.findOrCreate(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !c.RemoveItem(productID) {
		return nil, ErrItemNotFound
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

// Clear empties the owner's cart. Applied points are not refunded; owners
// who want them back remove the points application before clearing.
func (s *Service) Clear(ctx context.Context, ownerID string) (*Cart, error) {
	c, err := s.findOrCreate(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	c.Clear()
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

// SetTips sets the tip amount on the owner's cart.
func (s *Service) SetTips(ctx context.Context, ownerID string, amount decimal.Decimal) (*Cart, error) {
	c, err := s.findOrCreate(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	c.SetTips(amount)
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

// GetPoints returns the owner's current points balance.
func (s *Service) GetPoints(ctx context.Context, ownerID string) (int64, error) {
	return s.users.GetPoints(ctx, ownerID)
}

// ApplyPoints applies a points discount to the owner's cart and debits the
// ledger by exactly the amount the aggregate consumed. Re-applying replaces
// the previous application: the ledger is adjusted by the difference, so the
// owner is never double-charged.
func (s *Service) ApplyPoints(ctx context.Context, ownerID string, requested int64) (*Cart, error) {
	c, err := s.findOrCreate(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(c.Lines) == 0 || !c.TotalPrice.IsPositive() {
		return nil, ErrEmptyCart
	}

	balance, err := s.users.GetPoints(ctx, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "get points balance")
	}
	prior := c.PointsUsed
	if requested > balance+prior {
		return nil, user.ErrInsufficientPoints
	}

	used := c.ApplyPoints(requested)

	switch delta := used - prior; {
	case delta > 0:
		err = s.users.DebitPoints(ctx, ownerID, delta)
	case delta < 0:
		err = s.users.CreditPoints(ctx, ownerID, -delta)
	}
	if err != nil {
		return nil, errors.Wrap(err, "adjust points balance")
	}

	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

// RemovePoints clears the points application, crediting the consumed amount
// back to the owner's balance first.
func (s *Service) RemovePoints(ctx context.Context, ownerID string) (*Cart, error) {
	c, err := s.findOrCreate(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if credited := c.RemovePoints(); credited > 0 {
		if err := s.users.CreditPoints(ctx, ownerID, credited); err != nil {
			return nil, errors.Wrap(err, "credit points")
		}
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

// ApplyCoupon resolves the code to an active coupon and applies its
// percentage discount to the cart. Unknown and expired codes both surface as
// ErrCouponInvalid.
func (s *Service) ApplyCoupon(ctx context.Context, ownerID, code string) (*Cart, error) {
	c, err := s.findOrCreate(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if c.CouponCode != "" {
		return nil, ErrCouponAlreadyApplied
	}
	if !c.TotalPrice.IsPositive() {
		return nil, ErrEmptyCart
	}

	cpn, err := s.coupons.FindActiveByCode(ctx, code, s.now())
	if err != nil {
		if errors.Is(err, coupon.ErrNotFound) || errors.Is(err, coupon.ErrExpired) {
			return nil, ErrCouponInvalid
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	if err := c.ApplyCoupon(cpn.Code, cpn.DiscountPercent); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

// RemoveCoupon clears the active coupon from the owner's cart.
func (s *Service) RemoveCoupon(ctx context.Context, ownerID string) (*Cart, error) {
	c, err := s.findOrCreate(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := c.RemoveCoupon(); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

// UpdateAddress sets the shipping address and location, which recalculates
// the shipping fee.
func (s *Service) UpdateAddress(ctx context.Context, ownerID, address string, loc *Location) (*Cart, error) {
	c, err := s.findOrCreate(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	c.UpdateAddress(address, loc)
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

// findOrCreate loads the owner's cart, creating and persisting an empty one
// when none exists yet.
func (s *Service) findOrCreate(ctx context.Context, ownerID string) (*Cart, error) {
	c, err := s.carts.FindByOwner(ctx, ownerID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "find cart")
	}

	c = New(ownerID)
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save new cart")
	}
	return c, nil
}

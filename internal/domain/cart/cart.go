// Package cart implements the shopping cart aggregate: a per-owner item list
// together with every pricing adjustment (tips, loyalty points, percentage
// coupons, distance-based shipping) and the derived totals. Every mutating
// operation leaves the aggregate fully recomputed.
package cart

import (
	"github.com/shopspring/decimal"
)

// Line is a single product entry in a cart. Price, name, and image are
// snapshots taken when the product was first added; adding the same product
// again only increments the quantity.
type Line struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image"`
}

// Subtotal returns price multiplied by quantity for this line.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Location is a geographic coordinate used for shipping fee calculation.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Cart is the aggregate root. One cart exists per owner; it is created lazily
// on first access and never deleted (Clear empties it in place).
//
// TotalItems, TotalPrice, ShippingFee, Discount, and FinalTotal are derived
// fields maintained by recompute; callers must mutate the cart only through
// the exported operations.
type Cart struct {
	OwnerID        string          `json:"ownerId"`
	Lines          []Line          `json:"lines"`
	Tips           decimal.Decimal `json:"tips"`
	PointsUsed     int64           `json:"pointsUsed"`
	CouponCode     string          `json:"couponCode,omitempty"`
	CouponDiscount decimal.Decimal `json:"couponDiscount"`
	Address        string          `json:"address"`
	Location       *Location       `json:"location,omitempty"`

	TotalItems  int             `json:"totalItems"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	ShippingFee decimal.Decimal `json:"shippingFee"`
	Discount    decimal.Decimal `json:"discount"`
	FinalTotal  decimal.Decimal `json:"finalTotal"`
}

// New creates an empty cart for the given owner.
func New(ownerID string) *Cart {
	c := &Cart{
		OwnerID:        ownerID,
		Lines:          []Line{},
		Tips:           decimal.Zero,
		CouponDiscount: decimal.Zero,
	}
	c.recompute()
	return c
}

// AddItem appends a new line for the product, or increments the quantity of
// the existing line. The price/name/image snapshot of an existing line is
// preserved; only the first add captures product details. Stock availability
// is a precondition the caller enforces against the live product record.
func (c *Cart) AddItem(productID, name, image string, price decimal.Decimal, quantity int) {
	if line := c.findLine(productID); line != nil {
		line.Quantity += quantity
	} else {
		c.Lines = append(c.Lines, Line{
			ProductID: productID,
			Name:      name,
			Price:     price,
			Quantity:  quantity,
			Image:     image,
		})
	}
	c.recompute()
}

// UpdateItemQuantity sets the quantity of an existing line to an absolute
// value. Zero removes the line. Returns ErrItemNotFound when the product is
// not in the cart. Negative quantities are rejected by the caller before
// reaching the aggregate.
func (c *Cart) UpdateItemQuantity(productID string, quantity int) error {
	line := c.findLine(productID)
	if line == nil {
		return ErrItemNotFound
	}
	if quantity == 0 {
		c.RemoveItem(productID)
		return nil
	}
	line.Quantity = quantity
	c.recompute()
	return nil
}

// RemoveItem removes the line for the given product. It reports whether a
// line was actually removed and only recomputes when one was.
func (c *Cart) RemoveItem(productID string) bool {
	for i, line := range c.Lines {
		if line.ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			c.recompute()
			return true
		}
	}
	return false
}

// Clear empties the cart: lines, tips, points, coupon, and all derived totals
// reset to zero. The owner, address, and location survive so the next order
// ships to the same place.
func (c *Cart) Clear() {
	c.Lines = []Line{}
	c.Tips = decimal.Zero
	c.PointsUsed = 0
	c.CouponCode = ""
	c.CouponDiscount = decimal.Zero
	c.recompute()
}

// SetTips sets the tip amount. Negative amounts are normalized to zero.
func (c *Cart) SetTips(amount decimal.Decimal) {
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	c.Tips = amount
	c.recompute()
}

// ApplyPoints applies a loyalty point discount at a rate of 1 point = 1
// currency unit and returns the number of points actually consumed, so the
// caller can debit exactly that amount from the owner's balance.
//
// An active coupon reserves its discount first: points can never push the
// combined discount past the cart's total price. Requests of zero or less
// clear any applied points.
func (c *Cart) ApplyPoints(requested int64) int64 {
	if requested <= 0 {
		c.PointsUsed = 0
		c.recompute()
		return 0
	}

	headroom := c.TotalPrice.Sub(c.CouponDiscount)
	limit := headroom.IntPart()
	if limit < 0 {
		limit = 0
	}
	if requested < limit {
		c.PointsUsed = requested
	} else {
		c.PointsUsed = limit
	}
	c.recompute()
	return c.PointsUsed
}

// RemovePoints clears the points application and returns the amount that was
// applied, so the caller can credit it back to the owner's balance.
func (c *Cart) RemovePoints() int64 {
	credited := c.PointsUsed
	c.PointsUsed = 0
	c.recompute()
	return credited
}

// ApplyCoupon applies a percentage coupon to the cart. Only one coupon may be
// active at a time; the discount is floor(totalPrice * percent / 100).
// Validating that the code exists and is unexpired is the caller's job.
func (c *Cart) ApplyCoupon(code string, discountPercent decimal.Decimal) error {
	if c.CouponCode != "" {
		return ErrCouponAlreadyApplied
	}
	if !c.TotalPrice.IsPositive() {
		return ErrEmptyCart
	}
	c.CouponCode = code
	c.CouponDiscount = c.TotalPrice.Mul(discountPercent).Div(hundred).Floor()
	c.recompute()
	return nil
}

// RemoveCoupon clears the active coupon. Previously capped points are left
// as-is: removing a coupon does not re-expand an earlier points application.
func (c *Cart) RemoveCoupon() error {
	if c.CouponCode == "" {
		return ErrNoCouponApplied
	}
	c.CouponCode = ""
	c.CouponDiscount = decimal.Zero
	c.recompute()
	return nil
}

// UpdateAddress sets the shipping address and location. An empty address
// keeps the current one. Changing the location changes the shipping fee.
func (c *Cart) UpdateAddress(address string, loc *Location) {
	if address != "" {
		c.Address = address
	}
	c.Location = loc
	c.recompute()
}

// recompute recalculates every derived field from the cart's current state.
// It is pure with respect to the non-derived fields and idempotent: running
// it twice without an intervening mutation yields identical results.
func (c *Cart) recompute() {
	totalItems := 0
	totalPrice := decimal.Zero
	for _, line := range c.Lines {
		totalItems += line.Quantity
		totalPrice = totalPrice.Add(line.Subtotal())
	}

	c.TotalItems = totalItems
	c.TotalPrice = totalPrice
	c.ShippingFee = ShippingFee(c.Location)
	c.Discount = decimal.NewFromInt(c.PointsUsed).Add(c.CouponDiscount)

	final := totalPrice.Sub(c.Discount).Add(c.Tips).Add(c.ShippingFee)
	if final.IsNegative() {
		final = decimal.Zero
	}
	c.FinalTotal = final
}

func (c *Cart) findLine(productID string) *Line {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return &c.Lines[i]
		}
	}
	return nil
}

var hundred = decimal.NewFromInt(100)

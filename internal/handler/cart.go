package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/karimelsayed/shopgo/internal/domain/cart"
)

// cartResponse is the full cart projection returned by every cart endpoint.
type cartResponse struct {
	Cart           []lineResponse   `json:"cart"`
	TotalItems     int              `json:"totalItems"`
	TotalPrice     float64          `json:"totalPrice"`
	Tips           float64          `json:"tips"`
	PointsUsed     int64            `json:"pointsUsed"`
	Discount       float64          `json:"discount"`
	CouponCode     string           `json:"couponCode,omitempty"`
	CouponDiscount float64          `json:"couponDiscount"`
	ShippingFee    float64          `json:"shippingFee"`
	FinalTotal     float64          `json:"finalTotal"`
	Address        string           `json:"address"`
	Location       *locationPayload `json:"location,omitempty"`
}

type lineResponse struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image"`
}

type locationPayload struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func toCartResponse(c *cart.Cart) cartResponse {
	lines := make([]lineResponse, len(c.Lines))
	for i, l := range c.Lines {
		lines[i] = lineResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.Price.InexactFloat64(),
			Quantity:  l.Quantity,
			Image:     l.Image,
		}
	}

	resp := cartResponse{
		Cart:           lines,
		TotalItems:     c.TotalItems,
		TotalPrice:     c.TotalPrice.InexactFloat64(),
		Tips:           c.Tips.InexactFloat64(),
		PointsUsed:     c.PointsUsed,
		Discount:       c.Discount.InexactFloat64(),
		CouponCode:     c.CouponCode,
		CouponDiscount: c.CouponDiscount.InexactFloat64(),
		ShippingFee:    c.ShippingFee.InexactFloat64(),
		FinalTotal:     c.FinalTotal.InexactFloat64(),
		Address:        c.Address,
	}
	if c.Location != nil {
		resp.Location = &locationPayload{Lat: c.Location.Lat, Lng: c.Location.Lng}
	}
	return resp
}

// GetCart returns the owner's cart, creating an empty one on first access.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.Context(), ownerFromContext(r.Context()))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toCartResponse(c))
}

// GetCartCount returns only the total item count, for nav badges.
func (h *Handler) GetCartCount(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.Context(), ownerFromContext(r.Context()))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]int{"totalItems": c.TotalItems})
}

// AddItem adds a product to the cart.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"productId"`
		Quantity  *int   `json:"quantity"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	c, err := h.carts.AddItem(r.Context(), ownerFromContext(r.Context()), req.ProductID, quantity)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toCartResponse(c))
}

// UpdateItem sets an item's quantity; zero removes it.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := h.carts.UpdateItemQuantity(r.Context(), ownerFromContext(r.Context()), req.ProductID, req.Quantity)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toCartResponse(c))
}

// RemoveItem removes a product from the cart.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("productId")

	c, err := h.carts.RemoveItem(r.Context(), ownerFromContext(r.Context()), productID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toCartResponse(c))
}

// ClearCart empties the cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Clear(r.Context(), ownerFromContext(r.Context()))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toCartResponse(c))
}

// SetTips sets the cart's tip amount.
func (h *Handler) SetTips(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tips *float64 `json:"tips"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Tips == nil || *req.Tips < 0 {
		respondError(w, http.StatusBadRequest, "tips amount must be a valid positive number")
		return
	}

	c, err := h.carts.SetTips(r.Context(), ownerFromContext(r.Context()), decimal.NewFromFloat(*req.Tips))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toCartResponse(c))
}

// UpdateAddress sets the shipping address and location.
func (h *Handler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address string   `json:"address"`
		Lat     *float64 `json:"lat"`
		Lng     *float64 `json:"lng"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	var loc *cart.Location
	if req.Lat != nil && req.Lng != nil {
		loc = &cart.Location{Lat: *req.Lat, Lng: *req.Lng}
	}

	c, err := h.carts.UpdateAddress(r.Context(), ownerFromContext(r.Context()), req.Address, loc)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toCartResponse(c))
}

// GetPoints returns the owner's points balance.
func (h *Handler) GetPoints(w http.ResponseWriter, r *http.Request) {
	points, err := h.carts.GetPoints(r.Context(), ownerFromContext(r.Context()))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]int64{"points": points})
}

// ApplyPoints applies a loyalty point discount to the cart.
func (h *Handler) ApplyPoints(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Points int64 `json:"points"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := h.carts.ApplyPoints(r.Context(), ownerFromContext(r.Context()), req.Points)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toCartResponse(c))
}

// RemovePoints removes the points discount, restoring the balance.
func (h *Handler) RemovePoints(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.RemovePoints(r.Context(), ownerFromContext(r.Context()))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toCartResponse(c))
}

// ApplyCoupon applies a percentage coupon to the cart.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "coupon code is required")
		return
	}

	c, err := h.carts.ApplyCoupon(r.Context(), ownerFromContext(r.Context()), req.Code)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toCartResponse(c))
}

// RemoveCoupon removes the active coupon from the cart.
func (h *Handler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.RemoveCoupon(r.Context(), ownerFromContext(r.Context()))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toCartResponse(c))
}

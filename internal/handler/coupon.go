package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/karimelsayed/shopgo/internal/domain/coupon"
)

type couponResponse struct {
	Code            string     `json:"code"`
	DiscountPercent float64    `json:"discount"`
	ExpiresAt       *time.Time `json:"expires,omitempty"`
}

func toCouponResponse(c coupon.Coupon) couponResponse {
	return couponResponse{
		Code:            c.Code,
		DiscountPercent: c.DiscountPercent.InexactFloat64(),
		ExpiresAt:       c.ExpiresAt,
	}
}

// CreateCoupon registers a new percentage coupon.
func (h *Handler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code     string     `json:"code"`
		Discount float64    `json:"discount"`
		Expires  *time.Time `json:"expires"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	switch {
	case req.Code == "":
		respondError(w, http.StatusBadRequest, "coupon code is required")
		return
	case req.Discount <= 0 || req.Discount > 100:
		respondError(w, http.StatusBadRequest, "discount must be a percentage between 0 and 100")
		return
	}

	c := &coupon.Coupon{
		Code:            req.Code,
		DiscountPercent: decimal.NewFromFloat(req.Discount),
		ExpiresAt:       req.Expires,
	}
	if err := h.coupons.Create(r.Context(), c); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, toCouponResponse(*c))
}

// ListCoupons returns all registered coupons.
func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.coupons.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := make([]couponResponse, len(coupons))
	for i, c := range coupons {
		resp[i] = toCouponResponse(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "success",
		"results": len(resp),
		"data":    resp,
	})
}

// DeleteCoupon removes a coupon by code.
func (h *Handler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.coupons.Delete(r.Context(), r.PathValue("code")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "coupon deleted successfully"})
}

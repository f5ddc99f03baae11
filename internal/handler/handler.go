// Package handler exposes the REST API: authentication, product catalog,
// cart operations, and coupon administration. Handlers translate request
// payloads into domain operations and serialize the resulting state; all
// business rules live in the domain packages.
package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/karimelsayed/shopgo/internal/auth"
	"github.com/karimelsayed/shopgo/internal/domain/cart"
	"github.com/karimelsayed/shopgo/internal/domain/coupon"
	"github.com/karimelsayed/shopgo/internal/domain/product"
)

// Handler holds the services the REST endpoints delegate to.
type Handler struct {
	auth     *auth.Service
	carts    *cart.Service
	products product.Repository
	coupons  coupon.Repository
}

// New constructs a Handler with the required dependencies.
func New(authSvc *auth.Service, carts *cart.Service, products product.Repository, coupons coupon.Repository) *Handler {
	return &Handler{
		auth:     authSvc,
		carts:    carts,
		products: products,
		coupons:  coupons,
	}
}

// Register attaches all API routes to the mux. Cart routes require a bearer
// token; catalog reads are public.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/signup", h.Signup)
	mux.HandleFunc("POST /api/auth/signin", h.Signin)

	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.HandleFunc("POST /api/products", h.CreateProduct)

	mux.HandleFunc("POST /api/coupons", h.CreateCoupon)
	mux.HandleFunc("GET /api/coupons", h.ListCoupons)
	mux.HandleFunc("DELETE /api/coupons/{code}", h.DeleteCoupon)

	mux.HandleFunc("GET /api/cart", h.requireAuth(h.GetCart))
	mux.HandleFunc("GET /api/cart/count", h.requireAuth(h.GetCartCount))
	mux.HandleFunc("POST /api/cart/items", h.requireAuth(h.AddItem))
	mux.HandleFunc("PUT /api/cart/items", h.requireAuth(h.UpdateItem))
	mux.HandleFunc("DELETE /api/cart/items/{productId}", h.requireAuth(h.RemoveItem))
	mux.HandleFunc("DELETE /api/cart", h.requireAuth(h.ClearCart))
	mux.HandleFunc("POST /api/cart/tips", h.requireAuth(h.SetTips))
	mux.HandleFunc("PUT /api/cart/address", h.requireAuth(h.UpdateAddress))
	mux.HandleFunc("GET /api/cart/points", h.requireAuth(h.GetPoints))
	mux.HandleFunc("POST /api/cart/points", h.requireAuth(h.ApplyPoints))
	mux.HandleFunc("DELETE /api/cart/points", h.requireAuth(h.RemovePoints))
	mux.HandleFunc("PUT /api/cart/coupon", h.requireAuth(h.ApplyCoupon))
	mux.HandleFunc("DELETE /api/cart/coupon", h.requireAuth(h.RemoveCoupon))
}

// ownerKey is the context key for the authenticated owner's user ID.
type ownerKey struct{}

// ownerFromContext returns the authenticated user ID stored by requireAuth.
func ownerFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ownerKey{}).(string)
	return id
}

// requireAuth verifies the Authorization bearer token and stores the owner's
// user ID in the request context.
func (h *Handler) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		ownerID, err := h.auth.Verify(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), ownerKey{}, ownerID)
		next(w, r.WithContext(ctx))
	}
}

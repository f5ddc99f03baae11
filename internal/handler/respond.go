package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/karimelsayed/shopgo/internal/auth"
	"github.com/karimelsayed/shopgo/internal/domain/cart"
	"github.com/karimelsayed/shopgo/internal/domain/coupon"
	"github.com/karimelsayed/shopgo/internal/domain/product"
	"github.com/karimelsayed/shopgo/internal/domain/user"
)

// envelope is the success response shape: {"message":"success","data":…}.
type envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// errorResponse is the error response shape.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Message: "success", Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Code: status, Message: message})
}

// respondDomainError maps domain errors onto client error responses.
// Anything outside the taxonomy is a server error: it is logged and hidden
// behind a generic message.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, ok := statusFor(err)
	if !ok {
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondError(w, status, err.Error())
}

func statusFor(err error) (int, bool) {
	var stockErr *cart.InsufficientStockError

	switch {
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, user.ErrNotFound):
		return http.StatusNotFound, true

	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrEmptyCart),
		errors.Is(err, cart.ErrNoCouponApplied),
		errors.Is(err, cart.ErrCouponInvalid),
		errors.Is(err, user.ErrInsufficientPoints):
		return http.StatusBadRequest, true

	case errors.As(err, &stockErr):
		return http.StatusBadRequest, true

	case errors.Is(err, cart.ErrCouponAlreadyApplied),
		errors.Is(err, coupon.ErrExists),
		errors.Is(err, user.ErrEmailTaken):
		return http.StatusConflict, true

	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, true
	}
	return 0, false
}

// decodeBody parses a JSON request body into dst. A false return means a 400
// was already written.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karimelsayed/shopgo/internal/auth"
	"github.com/karimelsayed/shopgo/internal/domain/cart"
	"github.com/karimelsayed/shopgo/internal/domain/coupon"
	"github.com/karimelsayed/shopgo/internal/domain/product"
	"github.com/karimelsayed/shopgo/internal/domain/user"
)

// In-memory repositories backing the handler tests. They mirror the error
// contracts of the postgres implementations.

type memUsers struct {
	byID map[string]*user.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[string]*user.User)}
}

func (m *memUsers) Create(_ context.Context, u *user.User) error {
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return user.ErrEmailTaken
		}
	}
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *memUsers) GetPoints(_ context.Context, id string) (int64, error) {
	u, ok := m.byID[id]
	if !ok {
		return 0, user.ErrNotFound
	}
	return u.Points, nil
}

func (m *memUsers) DebitPoints(_ context.Context, id string, amount int64) error {
	u, ok := m.byID[id]
	if !ok {
		return user.ErrNotFound
	}
	if u.Points < amount {
		return user.ErrInsufficientPoints
	}
	u.Points -= amount
	return nil
}

func (m *memUsers) CreditPoints(_ context.Context, id string, amount int64) error {
	u, ok := m.byID[id]
	if !ok {
		return user.ErrNotFound
	}
	u.Points += amount
	return nil
}

type memCarts struct {
	byOwner map[string]*cart.Cart
}

func (m *memCarts) FindByOwner(_ context.Context, ownerID string) (*cart.Cart, error) {
	c, ok := m.byOwner[ownerID]
	if !ok {
		return nil, cart.ErrNotFound
	}
	return c, nil
}

func (m *memCarts) Save(_ context.Context, c *cart.Cart) error {
	m.byOwner[c.OwnerID] = c
	return nil
}

type memProducts struct {
	all []*product.Product
}

func (m *memProducts) List(_ context.Context, page product.ListPage) ([]product.Product, error) {
	start := page.Offset()
	if start >= len(m.all) {
		return []product.Product{}, nil
	}
	end := start + page.Limit
	if end > len(m.all) {
		end = len(m.all)
	}
	out := make([]product.Product, 0, end-start)
	for _, p := range m.all[start:end] {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memProducts) GetByID(_ context.Context, id string) (*product.Product, error) {
	for _, p := range m.all {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, product.ErrNotFound
}

func (m *memProducts) Create(_ context.Context, p *product.Product) error {
	m.all = append(m.all, p)
	return nil
}

type memCoupons struct {
	byCode map[string]*coupon.Coupon
}

func (m *memCoupons) FindByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	c, ok := m.byCode[strings.ToUpper(code)]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	return c, nil
}

func (m *memCoupons) Create(_ context.Context, c *coupon.Coupon) error {
	if _, ok := m.byCode[c.Code]; ok {
		return coupon.ErrExists
	}
	m.byCode[c.Code] = c
	return nil
}

func (m *memCoupons) List(_ context.Context) ([]coupon.Coupon, error) {
	out := make([]coupon.Coupon, 0, len(m.byCode))
	for _, c := range m.byCode {
		out = append(out, *c)
	}
	return out, nil
}

func (m *memCoupons) Delete(_ context.Context, code string) error {
	key := strings.ToUpper(code)
	if _, ok := m.byCode[key]; !ok {
		return coupon.ErrNotFound
	}
	delete(m.byCode, key)
	return nil
}

type testServer struct {
	mux      *http.ServeMux
	users    *memUsers
	products *memProducts
	coupons  *memCoupons
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	users := newMemUsers()
	products := &memProducts{all: []*product.Product{
		{ID: "p1", Name: "Espresso Beans", Slug: "espresso-beans", Price: decimal.NewFromInt(10), Stock: 5},
		{ID: "p2", Name: "Moka Pot", Slug: "moka-pot", Price: decimal.NewFromInt(100), Stock: 2},
	}}
	coupons := &memCoupons{byCode: map[string]*coupon.Coupon{
		"TEN": {Code: "TEN", DiscountPercent: decimal.NewFromInt(10)},
	}}
	carts := &memCarts{byOwner: make(map[string]*cart.Cart)}

	authSvc := auth.NewService(users, []byte("handler-test-secret"), time.Hour)
	cartSvc := cart.NewService(carts, products, coupon.NewRepoLookup(coupons), users)

	mux := http.NewServeMux()
	New(authSvc, cartSvc, products, coupons).Register(mux)

	return &testServer{mux: mux, users: users, products: products, coupons: coupons}
}

// do performs a request against the mux and returns the recorder.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)
	return rec
}

// decodeData unmarshals the "data" field of a success envelope into v.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()

	var env struct {
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "success", env.Message)
	if v != nil {
		require.NoError(t, json.Unmarshal(env.Data, v))
	}
}

// signup registers a fresh user and returns its bearer token.
func (ts *testServer) signup(t *testing.T, email string) string {
	t.Helper()

	rec := ts.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Test User", "email": email, "password": "secret-pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var data struct {
		Token string `json:"token"`
	}
	decodeData(t, rec, &data)
	require.NotEmpty(t, data.Token)
	return data.Token
}

type cartBody struct {
	Cart []struct {
		ProductID string  `json:"productId"`
		Quantity  int     `json:"quantity"`
		Price     float64 `json:"price"`
	} `json:"cart"`
	TotalItems     int     `json:"totalItems"`
	TotalPrice     float64 `json:"totalPrice"`
	Tips           float64 `json:"tips"`
	PointsUsed     int64   `json:"pointsUsed"`
	Discount       float64 `json:"discount"`
	CouponCode     string  `json:"couponCode"`
	CouponDiscount float64 `json:"couponDiscount"`
	ShippingFee    float64 `json:"shippingFee"`
	FinalTotal     float64 `json:"finalTotal"`
	Address        string  `json:"address"`
}

func TestSignup_Validation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"short name", map[string]string{"name": "X", "email": "x@example.com", "password": "secret-pass"}},
		{"bad email", map[string]string{"name": "Test User", "email": "not-an-email", "password": "secret-pass"}},
		{"short password", map[string]string{"name": "Test User", "email": "x@example.com", "password": "12345"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/auth/signup", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "dup@example.com")

	rec := ts.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Test User", "email": "dup@example.com", "password": "secret-pass",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSignin(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "me@example.com")

	rec := ts.do(t, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email": "me@example.com", "password": "secret-pass",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var data struct {
		Token string `json:"token"`
	}
	decodeData(t, rec, &data)
	assert.NotEmpty(t, data.Token)

	rec = ts.do(t, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email": "me@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCartRoutes_RequireAuth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/cart", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCart_ItemFlow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signup(t, "cart@example.com")

	// Fresh cart is empty.
	rec := ts.do(t, http.MethodGet, "/api/cart", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body cartBody
	decodeData(t, rec, &body)
	assert.Empty(t, body.Cart)
	assert.Zero(t, body.TotalItems)

	rec = ts.do(t, http.MethodPost, "/api/cart/items", token, map[string]any{
		"productId": "p1", "quantity": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeData(t, rec, &body)
	assert.Equal(t, 2, body.TotalItems)
	assert.InDelta(t, 20, body.TotalPrice, 1e-9)

	// Omitted quantity defaults to one.
	rec = ts.do(t, http.MethodPost, "/api/cart/items", token, map[string]any{"productId": "p1"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &body)
	assert.Equal(t, 3, body.TotalItems)

	rec = ts.do(t, http.MethodGet, "/api/cart/count", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var count struct {
		TotalItems int `json:"totalItems"`
	}
	decodeData(t, rec, &count)
	assert.Equal(t, 3, count.TotalItems)

	rec = ts.do(t, http.MethodPut, "/api/cart/items", token, map[string]any{
		"productId": "p1", "quantity": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &body)
	assert.Equal(t, 1, body.TotalItems)

	rec = ts.do(t, http.MethodDelete, "/api/cart/items/p1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &body)
	assert.Empty(t, body.Cart)
}

func TestCart_ItemErrors(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signup(t, "errs@example.com")

	rec := ts.do(t, http.MethodPost, "/api/cart/items", token, map[string]any{"productId": "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/cart/items", token, map[string]any{
		"productId": "p2", "quantity": 3,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "stock")

	rec = ts.do(t, http.MethodPost, "/api/cart/items", token, map[string]any{
		"productId": "p1", "quantity": 0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/cart/items/p1", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCart_PricingFlow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signup(t, "pricing@example.com")

	// Grant a points balance; signup starts at zero.
	for _, u := range ts.users.byID {
		u.Points = 500
	}

	rec := ts.do(t, http.MethodPost, "/api/cart/items", token, map[string]any{
		"productId": "p2", "quantity": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body cartBody
	rec = ts.do(t, http.MethodPost, "/api/cart/tips", token, map[string]any{"tips": 5.5})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &body)
	assert.InDelta(t, 5.5, body.Tips, 1e-9)
	assert.InDelta(t, 205.5, body.FinalTotal, 1e-9)

	rec = ts.do(t, http.MethodPut, "/api/cart/coupon", token, map[string]any{"code": "TEN"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &body)
	assert.Equal(t, "TEN", body.CouponCode)
	assert.InDelta(t, 20, body.CouponDiscount, 1e-9)
	assert.InDelta(t, 185.5, body.FinalTotal, 1e-9)

	rec = ts.do(t, http.MethodPost, "/api/cart/points", token, map[string]any{"points": 300})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &body)
	assert.Equal(t, int64(180), body.PointsUsed)
	assert.InDelta(t, 200, body.Discount, 1e-9)
	assert.InDelta(t, 5.5, body.FinalTotal, 1e-9)

	rec = ts.do(t, http.MethodGet, "/api/cart/points", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var points struct {
		Points int64 `json:"points"`
	}
	decodeData(t, rec, &points)
	assert.Equal(t, int64(320), points.Points)

	rec = ts.do(t, http.MethodDelete, "/api/cart/points", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &body)
	assert.Zero(t, body.PointsUsed)

	rec = ts.do(t, http.MethodDelete, "/api/cart/coupon", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = cartBody{}
	decodeData(t, rec, &body)
	assert.Empty(t, body.CouponCode)
	assert.InDelta(t, 205.5, body.FinalTotal, 1e-9)

	rec = ts.do(t, http.MethodDelete, "/api/cart", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &body)
	assert.Empty(t, body.Cart)
	assert.Zero(t, body.Tips)
}

func TestCart_PricingErrors(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signup(t, "perrs@example.com")

	rec := ts.do(t, http.MethodPost, "/api/cart/tips", token, map[string]any{"tips": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Coupons and points need a non-empty cart.
	rec = ts.do(t, http.MethodPut, "/api/cart/coupon", token, map[string]any{"code": "TEN"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/cart/points", token, map[string]any{"points": 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/cart/items", token, map[string]any{"productId": "p1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/cart/coupon", token, map[string]any{"code": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/cart/coupon", token, map[string]any{"code": "NOPE"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Zero balance: any points application overdrafts.
	rec = ts.do(t, http.MethodPost, "/api/cart/points", token, map[string]any{"points": 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/cart/coupon", token, map[string]any{"code": "TEN"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodPut, "/api/cart/coupon", token, map[string]any{"code": "TEN"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/cart/coupon", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodDelete, "/api/cart/coupon", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCart_Address(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signup(t, "addr@example.com")

	rec := ts.do(t, http.MethodPut, "/api/cart/address", token, map[string]any{
		"address": "12 Nile St", "lat": 30.0444, "lng": 31.2357,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var body cartBody
	decodeData(t, rec, &body)
	assert.Equal(t, "12 Nile St", body.Address)
	// The warehouse itself: nearest band.
	assert.InDelta(t, 15, body.ShippingFee, 1e-9)

	// Address without coordinates clears the location and the fee.
	rec = ts.do(t, http.MethodPut, "/api/cart/address", token, map[string]any{
		"address": "pickup counter",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &body)
	assert.Zero(t, body.ShippingFee)
}

func TestProducts_List(t *testing.T) {
	ts := newTestServer(t)
	for i := 0; i < 5; i++ {
		rec := ts.do(t, http.MethodPost, "/api/products", "", map[string]any{
			"name": "Filler Product " + string(rune('A'+i)), "price": 1.0, "stock": 1,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := ts.do(t, http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Message string            `json:"message"`
		Results int               `json:"results"`
		Page    int               `json:"page"`
		Data    []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 5, page.Results, "default page limit")
	assert.Equal(t, 1, page.Page)

	rec = ts.do(t, http.MethodGet, "/api/products?page=2&limit=5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Results)
	assert.Equal(t, 2, page.Page)

	// Bogus pagination falls back to defaults.
	rec = ts.do(t, http.MethodGet, "/api/products?page=-1&limit=9999", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 5, page.Results)
}

func TestProducts_GetAndCreate(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/products/p1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var p productResponse
	decodeData(t, rec, &p)
	assert.Equal(t, "Espresso Beans", p.Name)

	rec = ts.do(t, http.MethodGet, "/api/products/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/products", "", map[string]any{
		"name": "  Cold Brew Kit  ", "description": "steep overnight", "price": 39.99, "stock": 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	decodeData(t, rec, &p)
	assert.Equal(t, "Cold Brew Kit", p.Name)
	assert.Equal(t, "cold-brew-kit", p.Slug)
	assert.NotEmpty(t, p.ID)

	for _, body := range []map[string]any{
		{"name": "ab", "price": 1.0, "stock": 1},
		{"name": "Valid Name", "price": -1.0, "stock": 1},
		{"name": "Valid Name", "price": 1.0, "stock": -1},
	} {
		rec = ts.do(t, http.MethodPost, "/api/products", "", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestCoupons_Admin(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/coupons", "", map[string]any{
		"code": "summer25", "discount": 25,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var c couponResponse
	decodeData(t, rec, &c)
	assert.Equal(t, "SUMMER25", c.Code, "codes are stored uppercased")
	assert.InDelta(t, 25, c.DiscountPercent, 1e-9)

	rec = ts.do(t, http.MethodPost, "/api/coupons", "", map[string]any{
		"code": "SUMMER25", "discount": 30,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	for _, body := range []map[string]any{
		{"code": "", "discount": 10},
		{"code": "OK", "discount": 0},
		{"code": "OK", "discount": 101},
	} {
		rec = ts.do(t, http.MethodPost, "/api/coupons", "", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/api/coupons", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Results int `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Results)

	rec = ts.do(t, http.MethodDelete, "/api/coupons/SUMMER25", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/coupons/SUMMER25", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

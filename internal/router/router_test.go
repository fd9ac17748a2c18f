package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"metitejidos.com.ar/storefront/pkg/auth"
	"metitejidos.com.ar/storefront/pkg/checkout"
	"metitejidos.com.ar/storefront/pkg/global"
	"metitejidos.com.ar/storefront/pkg/models"
	"metitejidos.com.ar/storefront/pkg/mongo"
	"metitejidos.com.ar/storefront/pkg/redis"
)

type fakeProducts struct {
	byID map[string]*models.Product
	err  error
}

func (f *fakeProducts) ListProducts(context.Context, models.ProductFilter) ([]models.Product, error) {
	out := make([]models.Product, 0, len(f.byID))
	for _, p := range f.byID {
		out = append(out, *p)
	}
	return out, f.err
}

func (f *fakeProducts) GetProduct(_ context.Context, id string) (*models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.byID[id]
	if !ok {
		return nil, mongo.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) CreateProduct(_ context.Context, p *models.Product) error {
	p.ID = gofakeit.UUID()
	f.byID[p.ID] = p
	return nil
}

func (f *fakeProducts) UpdateProduct(_ context.Context, id string, req *models.UpdateProductRequest) (*models.Product, int, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, 0, mongo.ErrNotFound
	}
	before := p.Stock
	req.Apply(p)
	cp := *p
	return &cp, before, nil
}

func (f *fakeProducts) DeleteProduct(_ context.Context, id string) (*models.Product, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, mongo.ErrNotFound
	}
	delete(f.byID, id)
	return p, nil
}

type fakeOrders struct {
	created []*models.OrderSubmission
	byID    map[string]*models.Order
	err     error
}

func (f *fakeOrders) CreateOrder(_ context.Context, userID string, sub *models.OrderSubmission) (*models.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, sub)
	o := models.NewOrder(userID, sub, "ARS")
	o.ID = gofakeit.UUID()
	f.byID[o.ID] = o
	return o, nil
}

func (f *fakeOrders) ListMyOrders(_ context.Context, userID string) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.byID {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrders) ListOrders(context.Context) ([]models.Order, error) {
	out := make([]models.Order, 0, len(f.byID))
	for _, o := range f.byID {
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeOrders) GetOrder(_ context.Context, id string) (*models.Order, error) {
	o, ok := f.byID[id]
	if !ok {
		return nil, mongo.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrders) MarkDelivered(ctx context.Context, id string) (*models.Order, error) {
	o, err := f.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	o.MarkDelivered(time.Now().UTC())
	return o, nil
}

func (f *fakeOrders) MarkPaid(ctx context.Context, id string) (*models.Order, error) {
	o, err := f.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	o.MarkPaid(time.Now().UTC())
	return o, nil
}

func (f *fakeOrders) Stats(context.Context) (*models.OrderStats, error) {
	total := decimal.Zero
	for _, o := range f.byID {
		total = total.Add(o.TotalPrice)
	}
	return &models.OrderStats{TotalSales: total, TotalOrders: len(f.byID)}, nil
}

func (f *fakeOrders) TopProducts(context.Context, int) ([]models.ProductSales, error) {
	return []models.ProductSales{}, nil
}

type fakeMovements struct {
	recorded []models.StockMovement
}

func (f *fakeMovements) Record(_ context.Context, movements ...models.StockMovement) error {
	f.recorded = append(f.recorded, movements...)
	return nil
}

type fakeGateway struct {
	url string
}

func (f *fakeGateway) InitiatePayment(context.Context, checkout.PaymentRequest) (string, error) {
	return f.url, nil
}

type memUsers struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
}

func (m *memUsers) CreateUser(_ context.Context, user *models.User) error {
	user.ID = gofakeit.UUID()
	m.byEmail[user.Email] = user
	m.byID[user.ID] = user
	return nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return m.byEmail[email], nil
}

func (m *memUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	return m.byID[id], nil
}

type testEnv struct {
	engine    *gin.Engine
	products  *fakeProducts
	orders    *fakeOrders
	movements *fakeMovements
	tokens    *auth.TokenManager
	health    []HealthCheck
}

func newTestEnv(t *testing.T, health ...HealthCheck) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	env := &testEnv{
		products:  &fakeProducts{byID: map[string]*models.Product{}},
		orders:    &fakeOrders{byID: map[string]*models.Order{}},
		movements: &fakeMovements{},
		tokens:    auth.NewTokenManager("test-secret", time.Hour),
	}
	users := &memUsers{byEmail: map[string]*models.User{}, byID: map[string]*models.User{}}

	h := NewHandler(Deps{
		Products:   env.products,
		Cache:      redis.NewProductCache(client, time.Minute),
		Carts:      redis.NewCartStore(client, time.Hour),
		Orders:     env.orders,
		Creator:    env.orders,
		Movements:  env.movements,
		Users:      auth.NewService(users, env.tokens),
		Tokens:     env.tokens,
		Dispatcher: checkout.NewDispatcher(env.orders, &fakeGateway{url: "https://mp.example/checkout/abc"}, zap.NewNop()),
		Health:     health,
		Logger:     zap.NewNop(),
	})
	cfg := &global.Config{Env: "test", CORSOrigins: []string{"http://localhost:5173"}}
	env.engine = NewEngine(cfg, zap.NewNop(), h)
	return env
}

func (e *testEnv) addProduct(stock int, price int64) *models.Product {
	p := &models.Product{
		ID:       gofakeit.UUID(),
		Name:     gofakeit.ProductName(),
		Price:    decimal.NewFromInt(price),
		Stock:    stock,
		Category: models.CategoryDeco,
		Image:    models.DefaultProductImage,
		Size:     models.DefaultProductSize,
	}
	e.products.byID[p.ID] = p
	return p
}

func (e *testEnv) token(t *testing.T, id string, admin bool) string {
	t.Helper()
	tok, err := e.tokens.Issue(&models.User{ID: id, Name: "Meti", Email: "meti@example.com", IsAdmin: admin})
	require.NoError(t, err)
	return tok
}

type request struct {
	method  string
	path    string
	body    any
	token   string
	session string
}

type envelope struct {
	Success bool                     `json:"success"`
	Message string                   `json:"message"`
	Data    json.RawMessage          `json:"data"`
	Errors  []global.ValidationError `json:"errors"`
}

func (e *testEnv) do(t *testing.T, r request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var body bytes.Buffer
	if r.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(r.body))
	}
	req := httptest.NewRequest(r.method, r.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	if r.session != "" {
		req.Header.Set(CartSessionHeader, r.session)
	}

	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

type addResult struct {
	Added        int `json:"added"`
	Availability struct {
		Available int    `json:"available"`
		InCart    int    `json:"inCart"`
		Status    string `json:"status"`
	} `json:"availability"`
	Cart cartResult `json:"cart"`
}

type cartResult struct {
	SessionID string          `json:"sessionId"`
	Items     []cartItem      `json:"items"`
	ItemCount int             `json:"itemCount"`
	Total     decimal.Decimal `json:"total"`
	Step      string          `json:"step"`
}

type cartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestCart_AddClampsToStock(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct(5, 100)

	rec, body := env.do(t, request{method: http.MethodPost, path: "/api/cart/items", body: gin.H{"productId": p.ID, "quantity": 3}})
	require.Equal(t, http.StatusOK, rec.Code)
	session := rec.Header().Get(CartSessionHeader)
	require.NotEmpty(t, session)

	res := decode[addResult](t, body.Data)
	assert.Equal(t, 3, res.Added)
	assert.Equal(t, 2, res.Availability.Available)

	rec, body = env.do(t, request{method: http.MethodPost, path: "/api/cart/items", session: session, body: gin.H{"productId": p.ID, "quantity": 3}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, session, rec.Header().Get(CartSessionHeader))

	res = decode[addResult](t, body.Data)
	assert.Equal(t, 2, res.Added)
	assert.Equal(t, 0, res.Availability.Available)
	assert.Equal(t, "cart_max", res.Availability.Status)
	require.Len(t, res.Cart.Items, 1)
	assert.Equal(t, 5, res.Cart.Items[0].Quantity)
	assert.True(t, res.Cart.Total.Equal(decimal.NewFromInt(500)))

	rec, _ = env.do(t, request{method: http.MethodPost, path: "/api/cart/items", session: session, body: gin.H{"productId": p.ID, "quantity": 1}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, body = env.do(t, request{method: http.MethodGet, path: "/api/cart", session: session})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, decode[cartResult](t, body.Data).ItemCount)
}

func TestCart_AddZeroIsNoop(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct(5, 100)

	rec, body := env.do(t, request{method: http.MethodPost, path: "/api/cart/items", body: gin.H{"productId": p.ID, "quantity": 0}})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[addResult](t, body.Data)
	assert.Zero(t, res.Added)
	assert.Empty(t, res.Cart.Items)
}

func TestCart_UnknownProduct(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, request{method: http.MethodPost, path: "/api/cart/items", body: gin.H{"productId": "nope", "quantity": 1}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCart_UpdateAndRemove(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct(4, 100)

	rec, _ := env.do(t, request{method: http.MethodPost, path: "/api/cart/items", body: gin.H{"productId": p.ID, "quantity": 1}})
	session := rec.Header().Get(CartSessionHeader)

	rec, body := env.do(t, request{method: http.MethodPut, path: "/api/cart/items/" + p.ID, session: session, body: gin.H{"quantity": 0}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "quantity", body.Errors[0].Field)

	rec, body = env.do(t, request{method: http.MethodPut, path: "/api/cart/items/" + p.ID, session: session, body: gin.H{"quantity": 10}})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[addResult](t, body.Data)
	assert.Equal(t, 4, res.Cart.Items[0].Quantity)

	rec, body = env.do(t, request{method: http.MethodDelete, path: "/api/cart/items/" + p.ID, session: session})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[cartResult](t, body.Data).Items)

	rec, body = env.do(t, request{method: http.MethodGet, path: "/api/cart/availability/" + p.ID, session: session})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(body.Data), `"available":4`)
}

func TestCart_AvailabilityUsesCurrentStock(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct(3, 100)

	rec, _ := env.do(t, request{method: http.MethodPost, path: "/api/cart/items", body: gin.H{"productId": p.ID, "quantity": 3}})
	session := rec.Header().Get(CartSessionHeader)

	env.products.byID[p.ID].Stock = 1

	rec, body := env.do(t, request{method: http.MethodGet, path: "/api/cart/availability/" + p.ID, session: session})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(body.Data), `"available":-2`)
	assert.Contains(t, string(body.Data), `"status":"cart_max"`)
}

func TestCheckout_BeginRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, request{method: http.MethodPost, path: "/api/checkout/begin"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	session := rec.Header().Get(CartSessionHeader)

	rec, body := env.do(t, request{method: http.MethodPost, path: "/api/checkout/begin", session: session, token: env.token(t, "u1", false)})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "checkout", decode[cartResult](t, body.Data).Step)

	rec, body = env.do(t, request{method: http.MethodPost, path: "/api/checkout/cancel", session: session})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cart", decode[cartResult](t, body.Data).Step)
}

func TestCheckout_ManualOrderClearsCart(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct(5, 250)
	token := env.token(t, "u1", false)

	rec, _ := env.do(t, request{method: http.MethodPost, path: "/api/cart/items", body: gin.H{"productId": p.ID, "quantity": 2}})
	session := rec.Header().Get(CartSessionHeader)
	rec, _ = env.do(t, request{method: http.MethodPost, path: "/api/checkout/begin", session: session, token: token})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := env.do(t, request{method: http.MethodPost, path: "/api/checkout/manual", session: session, token: token,
		body: gin.H{"address": "San Martín 123", "city": "Córdoba", "postalCode": "5000"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	order := decode[models.Order](t, body.Data)
	assert.Equal(t, models.PaymentMethodCash, order.PaymentMethod)
	assert.True(t, order.TotalPrice.Equal(decimal.NewFromInt(500)))

	require.Len(t, env.orders.created, 1)
	sub := env.orders.created[0]
	assert.Equal(t, models.DefaultShippingCountry, sub.ShippingAddress.Country)
	assert.True(t, sub.TaxPrice.IsZero())

	rec, body = env.do(t, request{method: http.MethodGet, path: "/api/cart", session: session})
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decode[cartResult](t, body.Data)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Total.IsZero())
	assert.Equal(t, "cart", cart.Step)
}

func TestCheckout_ManualOrderEmptyCart(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, request{method: http.MethodPost, path: "/api/checkout/manual", token: env.token(t, "u1", false),
		body: gin.H{"address": "San Martín 123", "city": "Córdoba", "postalCode": "5000"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotEmpty(t, body.Errors)
	assert.Equal(t, "empty_cart", body.Errors[0].Code)
	assert.Empty(t, env.orders.created)
}

func TestCheckout_ManualOrderMissingAddress(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct(5, 250)

	rec, _ := env.do(t, request{method: http.MethodPost, path: "/api/cart/items", body: gin.H{"productId": p.ID, "quantity": 1}})
	session := rec.Header().Get(CartSessionHeader)

	rec, body := env.do(t, request{method: http.MethodPost, path: "/api/checkout/manual", session: session, token: env.token(t, "u1", false),
		body: gin.H{"address": "San Martín 123", "city": " ", "postalCode": "5000"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotEmpty(t, body.Errors)
	assert.Equal(t, "shippingAddress.city", body.Errors[0].Field)
	assert.Empty(t, env.orders.created)
}

func TestCheckout_StockConflictKeepsCart(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct(5, 250)

	rec, _ := env.do(t, request{method: http.MethodPost, path: "/api/cart/items", body: gin.H{"productId": p.ID, "quantity": 2}})
	session := rec.Header().Get(CartSessionHeader)

	env.orders.err = &checkout.StockConflictError{ProductID: p.ID, Name: p.Name, Requested: 2, Available: 1}
	rec, body := env.do(t, request{method: http.MethodPost, path: "/api/checkout/manual", session: session, token: env.token(t, "u1", false),
		body: gin.H{"address": "San Martín 123", "city": "Córdoba", "postalCode": "5000"}})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "stock_conflict", body.Errors[0].Code)

	rec, body = env.do(t, request{method: http.MethodGet, path: "/api/cart", session: session})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[cartResult](t, body.Data).ItemCount)
}

func TestCheckout_ManualOrderServiceDown(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct(5, 250)

	rec, _ := env.do(t, request{method: http.MethodPost, path: "/api/cart/items", body: gin.H{"productId": p.ID, "quantity": 1}})
	session := rec.Header().Get(CartSessionHeader)

	env.orders.err = errors.New("connection refused")
	rec, _ = env.do(t, request{method: http.MethodPost, path: "/api/checkout/manual", session: session, token: env.token(t, "u1", false),
		body: gin.H{"address": "San Martín 123", "city": "Córdoba", "postalCode": "5000"}})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCheckout_GatewayKeepsCart(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct(5, 250)

	rec, _ := env.do(t, request{method: http.MethodPost, path: "/api/cart/items", body: gin.H{"productId": p.ID, "quantity": 1}})
	session := rec.Header().Get(CartSessionHeader)

	rec, body := env.do(t, request{method: http.MethodPost, path: "/api/checkout/gateway", session: session})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(body.Data), "https://mp.example/checkout/abc")
	assert.Empty(t, env.orders.created)

	rec, body = env.do(t, request{method: http.MethodGet, path: "/api/cart", session: session})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[cartResult](t, body.Data).ItemCount)
}

func TestProducts_GetUsesCache(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct(5, 250)

	rec, _ := env.do(t, request{method: http.MethodGet, path: "/api/product/" + p.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	rec, body := env.do(t, request{method: http.MethodGet, path: "/api/product/" + p.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, p.Name, decode[models.Product](t, body.Data).Name)

	rec, _ = env.do(t, request{method: http.MethodGet, path: "/api/product/missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProducts_OrderDropsCachedProduct(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct(5, 250)

	rec, _ := env.do(t, request{method: http.MethodGet, path: "/api/product/" + p.ID})
	require.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	rec, _ = env.do(t, request{method: http.MethodGet, path: "/api/product/" + p.ID})
	require.Equal(t, "HIT", rec.Header().Get("X-Cache"))

	rec, _ = env.do(t, request{method: http.MethodPost, path: "/api/cart/items", body: gin.H{"productId": p.ID, "quantity": 2}})
	session := rec.Header().Get(CartSessionHeader)
	rec, _ = env.do(t, request{method: http.MethodPost, path: "/api/checkout/manual", session: session, token: env.token(t, "u1", false),
		body: gin.H{"address": "San Martín 123", "city": "Córdoba", "postalCode": "5000"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	env.products.byID[p.ID].Stock = 3
	rec, body := env.do(t, request{method: http.MethodGet, path: "/api/product/" + p.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 3, decode[models.Product](t, body.Data).Stock)
}

func TestProducts_ListFilterValidation(t *testing.T) {
	env := newTestEnv(t)
	env.addProduct(1, 100)

	rec, _ := env.do(t, request{method: http.MethodGet, path: "/api/product?cat=deco&minPrice=10&maxPrice=500&sort=price-asc"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body := env.do(t, request{method: http.MethodGet, path: "/api/product?minPrice=500&maxPrice=10"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "minPrice", body.Errors[0].Field)

	rec, _ = env.do(t, request{method: http.MethodGet, path: "/api/product?cat=muebles"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = env.do(t, request{method: http.MethodGet, path: "/api/product?minPrice=-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProducts_AdminUpdateRecordsAdjustment(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct(5, 250)
	update := gin.H{"stock": 0}

	rec, _ := env.do(t, request{method: http.MethodPut, path: "/api/product/" + p.ID, body: update})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = env.do(t, request{method: http.MethodPut, path: "/api/product/" + p.ID, body: update, token: env.token(t, "u1", false)})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body := env.do(t, request{method: http.MethodPut, path: "/api/product/" + p.ID, body: update, token: env.token(t, "admin", true)})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[models.Product](t, body.Data).Stock)
	assert.Equal(t, p.Name, decode[models.Product](t, body.Data).Name)

	require.Len(t, env.movements.recorded, 1)
	m := env.movements.recorded[0]
	assert.Equal(t, 5, m.QuantityBefore)
	assert.Equal(t, 0, m.QuantityAfter)
	assert.Equal(t, models.StockReasonAdjustment, m.Reason)
	assert.Equal(t, "admin", m.PerformedBy)

	rec, _ = env.do(t, request{method: http.MethodPut, path: "/api/product/" + p.ID, body: gin.H{"price": -1}, token: env.token(t, "admin", true)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = env.do(t, request{method: http.MethodPut, path: "/api/product/" + p.ID, body: gin.H{}, token: env.token(t, "admin", true)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProducts_AdminCreateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, "admin", true)

	rec, body := env.do(t, request{method: http.MethodPost, path: "/api/product", token: admin, body: gin.H{
		"name": "Amigurumi zorro", "description": "Tejido a mano", "price": 4200, "stock": 3, "category": "amigurumis",
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Product](t, body.Data)
	assert.Equal(t, models.DefaultProductSize, created.Size)
	require.Len(t, env.movements.recorded, 1)
	assert.Equal(t, 3, env.movements.recorded[0].QuantityAfter)

	rec, _ = env.do(t, request{method: http.MethodPost, path: "/api/product", token: admin, body: gin.H{
		"name": "Bufanda", "description": "x", "price": 10, "category": "muebles",
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = env.do(t, request{method: http.MethodDelete, path: "/api/product/" + created.ID, token: admin})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = env.do(t, request{method: http.MethodDelete, path: "/api/product/" + created.ID, token: admin})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrders_Visibility(t *testing.T) {
	env := newTestEnv(t)
	p := env.addProduct(5, 250)
	owner := env.token(t, "u1", false)

	rec, body := env.do(t, request{method: http.MethodPost, path: "/api/order", token: owner, body: gin.H{
		"orderItems":      []gin.H{{"product": p.ID, "name": p.Name, "price": 250, "qty": 1}},
		"shippingAddress": gin.H{"address": "San Martín 123", "city": "Córdoba", "postalCode": "5000", "country": "Argentina"},
		"paymentMethod":   "Efectivo",
		"itemsPrice":      250, "taxPrice": 0, "shippingPrice": 0, "totalPrice": 250,
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[models.Order](t, body.Data)

	rec, _ = env.do(t, request{method: http.MethodGet, path: "/api/order/" + order.ID, token: owner})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.do(t, request{method: http.MethodGet, path: "/api/order/" + order.ID, token: env.token(t, "u2", false)})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = env.do(t, request{method: http.MethodGet, path: "/api/order/" + order.ID, token: env.token(t, "admin", true)})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = env.do(t, request{method: http.MethodGet, path: "/api/order/myorders", token: owner})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Order](t, body.Data), 1)

	rec, _ = env.do(t, request{method: http.MethodGet, path: "/api/order", token: owner})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = env.do(t, request{method: http.MethodPut, path: "/api/order/" + order.ID + "/deliver", token: env.token(t, "admin", true)})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[models.Order](t, body.Data).IsDelivered)

	rec, body = env.do(t, request{method: http.MethodGet, path: "/api/order/stats/insights", token: env.token(t, "admin", true)})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(body.Data), `"aiEnabled":false`)
}

func TestUsers_RegisterLoginMe(t *testing.T) {
	env := newTestEnv(t)
	creds := gin.H{"name": "Meti", "email": "meti@example.com", "password": "secreto1"}

	rec, body := env.do(t, request{method: http.MethodPost, path: "/api/users/register", body: creds})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	registered := decode[models.AuthResponse](t, body.Data)
	assert.NotEmpty(t, registered.Token)

	rec, _ = env.do(t, request{method: http.MethodPost, path: "/api/users/register", body: creds})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = env.do(t, request{method: http.MethodPost, path: "/api/users/login", body: gin.H{"email": "meti@example.com", "password": "wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body = env.do(t, request{method: http.MethodPost, path: "/api/users/register", body: gin.H{"name": "M", "email": "nope"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, body.Errors)

	rec, body = env.do(t, request{method: http.MethodGet, path: "/api/users/me", token: registered.Token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "meti@example.com", decode[models.User](t, body.Data).Email)

	rec, _ = env.do(t, request{method: http.MethodGet, path: "/api/users/me", token: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealth(t *testing.T) {
	ok := HealthCheck{Name: "database", Check: func(context.Context) error { return nil }}
	down := HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("dial tcp: refused") }}

	env := newTestEnv(t, ok)
	rec, _ := env.do(t, request{method: http.MethodGet, path: "/api/health"})
	assert.Equal(t, http.StatusOK, rec.Code)

	env = newTestEnv(t, ok, down)
	rec, body := env.do(t, request{method: http.MethodGet, path: "/api/health"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, string(body.Data), `"redis":"Unavailable"`)
}

package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fjod/go_cart/marketplace/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRouter struct {
	handler  http.Handler
	cart     *mockCartService
	catalog  *mockCatalogService
	orders   *mockOrderService
	accounts *mockAuthService
}

func newTestRouter(checks map[string]func(context.Context) error) testRouter {
	tr := testRouter{
		cart:     &mockCartService{view: &domain.CartView{UserID: "u1", Items: []domain.CartLine{}}},
		catalog:  &mockCatalogService{page: &domain.ProductPage{Products: []*domain.Product{}}},
		orders:   &mockOrderService{},
		accounts: &mockAuthService{},
	}
	tr.handler = NewRouter(RouterConfig{
		RequestTimeout: 5 * time.Second,
		MaxBodyBytes:   1 << 20,
		CORSOrigins:    []string{"https://shop.example"},
		Tokens:         mockTokens{tokens: map[string]string{"t1": "u1"}},
		HealthChecks:   checks,
	}, Handlers{
		Auth:     NewAuthHandler(tr.accounts, time.Second),
		Products: NewProductHandler(tr.catalog, time.Second),
		Cart:     NewCartHandler(tr.cart, time.Second),
		Orders:   NewOrdersHandler(tr.orders, time.Second),
	})
	return tr
}

func (tr testRouter) do(method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	tr.handler.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	tr := newTestRouter(map[string]func(context.Context) error{
		"mongo": func(context.Context) error { return nil },
	})
	rec := tr.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","dependencies":{"mongo":"ok"}}`, rec.Body.String())

	tr = newTestRouter(map[string]func(context.Context) error{
		"mongo": func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("dial tcp 10.0.3.7:6379: connection refused") },
	})
	rec = tr.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","dependencies":{"mongo":"ok","redis":"down"}}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "10.0.3.7")
}

func TestRouter_PublicAndProtectedRoutes(t *testing.T) {
	tr := newTestRouter(nil)

	assert.Equal(t, http.StatusOK, tr.do(http.MethodGet, "/api/products", "").Code)
	assert.Equal(t, http.StatusUnauthorized, tr.do(http.MethodGet, "/api/cart", "").Code)
	assert.Equal(t, http.StatusUnauthorized, tr.do(http.MethodGet, "/api/products/user/my-products", "").Code)
	assert.Equal(t, http.StatusUnauthorized, tr.do(http.MethodGet, "/api/orders/my-orders", "bogus").Code)

	rec := tr.do(http.MethodGet, "/api/cart", "t1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", tr.cart.lastUser)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRouter_StaticRouteBeatsParam(t *testing.T) {
	tr := newTestRouter(nil)

	rec := tr.do(http.MethodGet, "/api/products/user/my-products", "t1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", tr.catalog.lastSeller)

	rec = tr.do(http.MethodGet, "/api/orders/my-sales", "t1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "seller:u1", tr.orders.lastListFor)
}

func TestRouter_CORSPreflight(t *testing.T) {
	tr := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/orders", nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Idempotency-Key")

	rec := httptest.NewRecorder()
	tr.handler.ServeHTTP(rec, req)

	assert.Equal(t, "https://shop.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

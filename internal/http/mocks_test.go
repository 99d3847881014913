package http

import (
	"context"
	"errors"
	"sync"

	"github.com/fjod/go_cart/marketplace/internal/domain"
	"github.com/fjod/go_cart/marketplace/internal/service"
)

type mockCartService struct {
	mu        sync.RWMutex
	view      *domain.CartView
	cart      *domain.Cart
	err       error
	lastUser  string
	lastID    string
	lastQty   int
	clearSeen bool
}

func (m *mockCartService) record(userID, productID string, qty int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUser, m.lastID, m.lastQty = userID, productID, qty
}

func (m *mockCartService) GetCartView(_ context.Context, userID string) (*domain.CartView, error) {
	m.record(userID, "", 0)
	return m.view, m.err
}

func (m *mockCartService) AddItem(_ context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	m.record(userID, productID, quantity)
	return m.cart, m.err
}

func (m *mockCartService) SetQuantity(_ context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	m.record(userID, productID, quantity)
	return m.cart, m.err
}

func (m *mockCartService) RemoveItem(_ context.Context, userID, productID string) (*domain.Cart, error) {
	m.record(userID, productID, 0)
	return m.cart, m.err
}

func (m *mockCartService) ClearCart(_ context.Context, userID string) error {
	m.record(userID, "", 0)
	m.mu.Lock()
	m.clearSeen = true
	m.mu.Unlock()
	return m.err
}

type mockCatalogService struct {
	mu         sync.RWMutex
	page       *domain.ProductPage
	product    *domain.Product
	products   []*domain.Product
	like       domain.LikeResult
	err        error
	lastFilter domain.SearchFilter
	lastPatch  domain.ProductPatch
	lastSeller string
	available  *bool
}

func (m *mockCatalogService) Search(_ context.Context, f domain.SearchFilter) (*domain.ProductPage, error) {
	m.mu.Lock()
	m.lastFilter = f
	m.mu.Unlock()
	return m.page, m.err
}

func (m *mockCatalogService) GetProduct(context.Context, string) (*domain.Product, error) {
	return m.product, m.err
}

func (m *mockCatalogService) CreateProduct(_ context.Context, sellerID string, p *domain.Product) (*domain.Product, error) {
	m.mu.Lock()
	m.lastSeller = sellerID
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p.ID = "new-product"
	p.SellerID = sellerID
	return p, nil
}

func (m *mockCatalogService) UpdateProduct(_ context.Context, _, _ string, patch domain.ProductPatch) (*domain.Product, error) {
	m.mu.Lock()
	m.lastPatch = patch
	m.mu.Unlock()
	return m.product, m.err
}

func (m *mockCatalogService) SetAvailability(_ context.Context, _, _ string, available bool) error {
	m.mu.Lock()
	m.available = &available
	m.mu.Unlock()
	return m.err
}

func (m *mockCatalogService) DeleteProduct(context.Context, string, string) error {
	return m.err
}

func (m *mockCatalogService) ListBySeller(_ context.Context, sellerID string) ([]*domain.Product, error) {
	m.mu.Lock()
	m.lastSeller = sellerID
	m.mu.Unlock()
	return m.products, m.err
}

func (m *mockCatalogService) ToggleLike(context.Context, string, string) (domain.LikeResult, error) {
	return m.like, m.err
}

type mockOrderService struct {
	mu          sync.RWMutex
	result      *service.CheckoutResult
	order       *domain.Order
	orders      []*domain.Order
	err         error
	lastReq     service.CheckoutRequest
	lastStatus  domain.OrderStatus
	lastListFor string
}

func (m *mockOrderService) Checkout(_ context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error) {
	m.mu.Lock()
	m.lastReq = req
	m.mu.Unlock()
	return m.result, m.err
}

func (m *mockOrderService) GetOrder(context.Context, string, string) (*domain.Order, error) {
	return m.order, m.err
}

func (m *mockOrderService) ListByBuyer(_ context.Context, buyerID string) ([]*domain.Order, error) {
	m.mu.Lock()
	m.lastListFor = "buyer:" + buyerID
	m.mu.Unlock()
	return m.orders, m.err
}

func (m *mockOrderService) ListBySeller(_ context.Context, sellerID string) ([]*domain.Order, error) {
	m.mu.Lock()
	m.lastListFor = "seller:" + sellerID
	m.mu.Unlock()
	return m.orders, m.err
}

func (m *mockOrderService) UpdateStatus(_ context.Context, _, _ string, status domain.OrderStatus) (*domain.Order, error) {
	m.mu.Lock()
	m.lastStatus = status
	m.mu.Unlock()
	return m.order, m.err
}

type mockAuthService struct {
	mu        sync.RWMutex
	result    *service.AuthResult
	user      *domain.User
	err       error
	lastInput service.RegisterInput
	lastEmail string
	lastPatch service.ProfileUpdate
}

func (m *mockAuthService) Register(_ context.Context, in service.RegisterInput) (*service.AuthResult, error) {
	m.mu.Lock()
	m.lastInput = in
	m.mu.Unlock()
	return m.result, m.err
}

func (m *mockAuthService) Login(_ context.Context, email, _ string) (*service.AuthResult, error) {
	m.mu.Lock()
	m.lastEmail = email
	m.mu.Unlock()
	return m.result, m.err
}

func (m *mockAuthService) Me(context.Context, string) (*domain.User, error) {
	return m.user, m.err
}

func (m *mockAuthService) UpdateProfile(_ context.Context, _ string, upd service.ProfileUpdate) (*domain.User, error) {
	m.mu.Lock()
	m.lastPatch = upd
	m.mu.Unlock()
	return m.user, m.err
}

type mockTokens struct {
	tokens map[string]string
}

func (m mockTokens) Parse(token string) (string, error) {
	if id, ok := m.tokens[token]; ok {
		return id, nil
	}
	return "", errors.New("invalid token")
}

package service

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/fjod/go_cart/marketplace/internal/cache"
	"github.com/fjod/go_cart/marketplace/internal/domain"
	"github.com/fjod/go_cart/marketplace/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockProducts struct {
	m        sync.RWMutex
	products map[string]*domain.Product
	err      error
	sold     []string
}

func newMockProducts(products ...*domain.Product) *mockProducts {
	mp := &mockProducts{products: map[string]*domain.Product{}}
	for _, p := range products {
		mp.products[p.ID] = p
	}
	return mp
}

func (m *mockProducts) get(id string) *domain.Product {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.products[id]
}

func (m *mockProducts) snapshot() func() {
	m.m.Lock()
	defer m.m.Unlock()
	saved := make(map[string]domain.Product, len(m.products))
	for id, p := range m.products {
		saved[id] = *p
	}
	sold := slices.Clone(m.sold)
	return func() {
		m.m.Lock()
		defer m.m.Unlock()
		for id, p := range saved {
			*m.products[id] = p
		}
		m.sold = sold
	}
}

func (m *mockProducts) Create(_ context.Context, p *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	p.ID = primitive.NewObjectID().Hex()
	m.products[p.ID] = p
	return nil
}

func (m *mockProducts) GetByID(_ context.Context, id string) (*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProducts) GetByIDs(_ context.Context, ids []string) (map[string]*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	result := map[string]*domain.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			cp := *p
			result[id] = &cp
		}
	}
	return result, nil
}

func (m *mockProducts) Search(_ context.Context, f domain.SearchFilter) ([]*domain.Product, int64, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, 0, m.err
	}
	var all []*domain.Product
	for _, p := range m.products {
		if p.IsAvailable {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Title < all[j].Title })

	start := min(int(f.Skip()), len(all))
	end := min(start+f.Limit, len(all))
	return all[start:end], int64(len(all)), nil
}

func (m *mockProducts) ListBySeller(_ context.Context, sellerID string) ([]*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	var result []*domain.Product
	for _, p := range m.products {
		if p.SellerID == sellerID {
			result = append(result, p)
		}
	}
	return result, m.err
}

func (m *mockProducts) Update(_ context.Context, p *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *mockProducts) Delete(_ context.Context, id, _ string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.products, id)
	return nil
}

func (m *mockProducts) SetAvailability(_ context.Context, id string, available bool) error {
	m.m.Lock()
	defer m.m.Unlock()
	p, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.IsAvailable = available
	return nil
}

func (m *mockProducts) MarkSold(_ context.Context, id string) error {
	m.m.Lock()
	defer m.m.Unlock()
	p, ok := m.products[id]
	if !ok || !p.IsAvailable {
		return domain.ErrProductUnavailable
	}
	p.IsAvailable = false
	m.sold = append(m.sold, id)
	return nil
}

func (m *mockProducts) IncrementViews(_ context.Context, id string) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	p.Views++
	cp := *p
	return &cp, nil
}

func (m *mockProducts) ToggleLike(_ context.Context, id, userID string) (domain.LikeResult, error) {
	m.m.Lock()
	defer m.m.Unlock()
	p, ok := m.products[id]
	if !ok {
		return domain.LikeResult{}, repository.ErrProductNotFound
	}
	if i := slices.Index(p.Likes, userID); i >= 0 {
		p.Likes = slices.Delete(p.Likes, i, i+1)
		return domain.LikeResult{IsLiked: false, LikesCount: len(p.Likes)}, nil
	}
	p.Likes = append(p.Likes, userID)
	return domain.LikeResult{IsLiked: true, LikesCount: len(p.Likes)}, nil
}

type mockCarts struct {
	m        sync.RWMutex
	carts    map[string]*domain.Cart
	err      error
	clearErr error
	getCalls int
}

func newMockCarts() *mockCarts {
	return &mockCarts{carts: map[string]*domain.Cart{}}
}

func (m *mockCarts) put(userID string, items ...domain.CartItem) {
	m.m.Lock()
	defer m.m.Unlock()
	c := domain.NewCart(userID)
	c.Items = append(c.Items, items...)
	m.carts[userID] = c
}

func (m *mockCarts) items(userID string) []domain.CartItem {
	m.m.RLock()
	defer m.m.RUnlock()
	if c, ok := m.carts[userID]; ok {
		return slices.Clone(c.Items)
	}
	return nil
}

func (m *mockCarts) snapshot() func() {
	m.m.Lock()
	defer m.m.Unlock()
	saved := make(map[string][]domain.CartItem, len(m.carts))
	for id, c := range m.carts {
		saved[id] = slices.Clone(c.Items)
	}
	return func() {
		m.m.Lock()
		defer m.m.Unlock()
		for id, items := range saved {
			m.carts[id].Items = items
		}
	}
}

func (m *mockCarts) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	cp := *c
	cp.Items = slices.Clone(c.Items)
	return &cp, nil
}

func (m *mockCarts) GetOrCreateCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.getCalls++
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[userID]
	if !ok {
		c = domain.NewCart(userID)
		m.carts[userID] = c
	}
	cp := *c
	cp.Items = slices.Clone(c.Items)
	return &cp, nil
}

func (m *mockCarts) AddItem(_ context.Context, userID, productID string, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	c, ok := m.carts[userID]
	if !ok {
		c = domain.NewCart(userID)
		m.carts[userID] = c
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			return nil
		}
	}
	c.Items = append(c.Items, domain.CartItem{ProductID: productID, Quantity: quantity})
	return nil
}

func (m *mockCarts) UpdateItemQuantity(_ context.Context, userID, productID string, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if c, ok := m.carts[userID]; ok {
		for i := range c.Items {
			if c.Items[i].ProductID == productID {
				c.Items[i].Quantity = quantity
				return nil
			}
		}
	}
	return repository.ErrItemNotFound
}

func (m *mockCarts) RemoveItem(_ context.Context, userID, productID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	c, ok := m.carts[userID]
	if !ok {
		return repository.ErrCartNotFound
	}
	c.Items = slices.DeleteFunc(c.Items, func(item domain.CartItem) bool { return item.ProductID == productID })
	return nil
}

func (m *mockCarts) ClearCart(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.clearErr != nil {
		return m.clearErr
	}
	c, ok := m.carts[userID]
	if !ok {
		return repository.ErrCartNotFound
	}
	c.Items = []domain.CartItem{}
	return nil
}

type mockOrders struct {
	m      sync.RWMutex
	orders []*domain.Order
	err    error
}

func (m *mockOrders) all() []*domain.Order {
	m.m.RLock()
	defer m.m.RUnlock()
	return slices.Clone(m.orders)
}

func (m *mockOrders) snapshot() func() {
	m.m.Lock()
	defer m.m.Unlock()
	saved := slices.Clone(m.orders)
	return func() {
		m.m.Lock()
		defer m.m.Unlock()
		m.orders = saved
	}
}

func (m *mockOrders) Create(_ context.Context, o *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.orders {
		if existing.BuyerID == o.BuyerID && existing.CheckoutID == o.CheckoutID && existing.SellerID == o.SellerID {
			return domain.ErrDuplicateCheckout
		}
	}
	if o.ID == "" {
		o.ID = primitive.NewObjectID().Hex()
	}
	m.orders = append(m.orders, o)
	return nil
}

func (m *mockOrders) GetByID(_ context.Context, id string) (*domain.Order, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	for _, o := range m.orders {
		if o.ID == id {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrders) filter(keep func(o *domain.Order) bool) []*domain.Order {
	m.m.RLock()
	defer m.m.RUnlock()
	var result []*domain.Order
	for _, o := range m.orders {
		if keep(o) {
			result = append(result, o)
		}
	}
	return result
}

func (m *mockOrders) ListByBuyer(_ context.Context, buyerID string) ([]*domain.Order, error) {
	return m.filter(func(o *domain.Order) bool { return o.BuyerID == buyerID }), nil
}

func (m *mockOrders) ListBySeller(_ context.Context, sellerID string) ([]*domain.Order, error) {
	return m.filter(func(o *domain.Order) bool { return o.SellerID == sellerID }), nil
}

func (m *mockOrders) ListByCheckout(_ context.Context, buyerID, checkoutID string) ([]*domain.Order, error) {
	return m.filter(func(o *domain.Order) bool { return o.BuyerID == buyerID && o.CheckoutID == checkoutID }), nil
}

func (m *mockOrders) UpdateStatus(_ context.Context, id, sellerID string, from, next domain.OrderStatus) error {
	m.m.Lock()
	defer m.m.Unlock()
	for _, o := range m.orders {
		if o.ID == id && o.SellerID == sellerID && o.Status == from {
			o.Status = next
			return nil
		}
	}
	return repository.ErrStatusConflict
}

// mockTx restores every registered mock when the transaction body fails.
type mockTx struct {
	parts []interface{ snapshot() func() }
	calls int
}

func (m *mockTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	restores := make([]func(), 0, len(m.parts))
	for _, p := range m.parts {
		restores = append(restores, p.snapshot())
	}
	if err := fn(ctx); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

type mockCache struct {
	m       sync.RWMutex
	carts   map[string]*domain.Cart
	getErr  error
	deleted []string
}

func newMockCache() *mockCache {
	return &mockCache{carts: map[string]*domain.Cart{}}
}

func (m *mockCache) Get(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	c, ok := m.carts[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return c, nil
}

func (m *mockCache) Set(_ context.Context, userID string, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.carts[userID] = cart
	return nil
}

func (m *mockCache) Delete(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.carts, userID)
	m.deleted = append(m.deleted, userID)
	return nil
}

type mockPublisher struct {
	m         sync.Mutex
	checkouts []string
	orders    [][]*domain.Order
	err       error
}

func (m *mockPublisher) PublishOrdersCreated(_ context.Context, checkoutID string, orders []*domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.checkouts = append(m.checkouts, checkoutID)
	m.orders = append(m.orders, orders)
	return m.err
}

type mockInvalidator struct {
	m     sync.Mutex
	users []string
}

func (m *mockInvalidator) Invalidate(userID string) {
	m.m.Lock()
	defer m.m.Unlock()
	m.users = append(m.users, userID)
}

type mockTokens struct {
	err error
}

func (m mockTokens) Issue(userID string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "token-" + userID, nil
}

type mockUsers struct {
	m     sync.RWMutex
	users map[string]*domain.User
}

func newMockUsers() *mockUsers {
	return &mockUsers{users: map[string]*domain.User{}}
}

func (m *mockUsers) Create(_ context.Context, u *domain.User) error {
	m.m.Lock()
	defer m.m.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return repository.ErrUserExists
		}
	}
	u.ID = primitive.NewObjectID().Hex()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUsers) UpdateProfile(_ context.Context, u *domain.User) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return repository.ErrUserNotFound
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

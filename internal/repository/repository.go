package repository

import (
	"context"
	"fmt"

	"github.com/fjod/go_cart/marketplace/internal/domain"
)

var (
	ErrCartNotFound    = fmt.Errorf("cart %w", domain.ErrNotFound)
	ErrItemNotFound    = fmt.Errorf("item in cart %w", domain.ErrNotFound)
	ErrProductNotFound = fmt.Errorf("product %w", domain.ErrNotFound)
	ErrOrderNotFound   = fmt.Errorf("order %w", domain.ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", domain.ErrNotFound)
	ErrUserExists      = fmt.Errorf("%w: user already exists", domain.ErrValidation)
	ErrStatusConflict  = fmt.Errorf("%w: order status was changed concurrently", domain.ErrValidation)
)

type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// GetByIDs returns the products that exist, keyed by id.
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error)
	Search(ctx context.Context, f domain.SearchFilter) ([]*domain.Product, int64, error)
	ListBySeller(ctx context.Context, sellerID string) ([]*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id, sellerID string) error
	SetAvailability(ctx context.Context, id string, available bool) error
	// MarkSold flips an available product to unavailable. It fails with
	// domain.ErrProductUnavailable when the product was already sold.
	MarkSold(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) (*domain.Product, error)
	ToggleLike(ctx context.Context, id, userID string) (domain.LikeResult, error)
}

type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	GetOrCreateCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) error
	UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID, productID string) error
	ClearCart(ctx context.Context, userID string) error
}

type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error)
	ListBySeller(ctx context.Context, sellerID string) ([]*domain.Order, error)
	ListByCheckout(ctx context.Context, buyerID, checkoutID string) ([]*domain.Order, error)
	// UpdateStatus writes next only if the order still belongs to sellerID and
	// is still in status from.
	UpdateStatus(ctx context.Context, id, sellerID string, from, next domain.OrderStatus) error
}

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, u *domain.User) error
}

// TxRunner runs fn inside one transaction. Repository calls made with the
// context passed to fn join that transaction.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

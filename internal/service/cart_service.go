package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fjod/go_cart/marketplace/internal/cache"
	"github.com/fjod/go_cart/marketplace/internal/domain"
	"github.com/fjod/go_cart/marketplace/internal/repository"
	"golang.org/x/sync/singleflight"
)

type CartService struct {
	repo     repository.CartRepository
	products repository.ProductRepository
	cache    cache.CartCache
	sfg      singleflight.Group // Prevents cache stampede
}

func NewCartService(repo repository.CartRepository, products repository.ProductRepository, cache cache.CartCache) *CartService {
	return &CartService{
		repo:     repo,
		products: products,
		cache:    cache,
	}
}

// GetCart returns the user's cart, creating an empty one on first access.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			slog.WarnContext(ctx, "cache get failed", "user_id", userID, "error", err)
		}

		cart, err = s.repo.GetOrCreateCart(ctx, userID)
		if err != nil {
			return nil, err
		}

		if err := s.cache.Set(ctx, userID, cart); err != nil {
			slog.WarnContext(ctx, "cache set failed", "user_id", userID, "error", err)
		}
		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// GetCartView returns the cart with a summary of each product.
func (s *CartService) GetCartView(ctx context.Context, userID string) (*domain.CartView, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	products, err := s.products.GetByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, err
	}
	return domain.NewCartView(cart, products), nil
}

// AddItem merges quantity into an existing entry or appends a new one.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrValidation)
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsAvailable {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductUnavailable, p.Title)
	}
	if p.SellerID == userID {
		return nil, domain.ErrSelfPurchase
	}

	if err := s.repo.AddItem(ctx, userID, productID, quantity); err != nil {
		return nil, err
	}

	s.Invalidate(userID)
	return s.GetCart(ctx, userID)
}

// SetQuantity overwrites the entry quantity. Zero or less removes the entry.
func (s *CartService) SetQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, productID)
	}

	if err := s.repo.UpdateItemQuantity(ctx, userID, productID, quantity); err != nil {
		return nil, err
	}

	s.Invalidate(userID)
	return s.GetCart(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	if err := s.repo.RemoveItem(ctx, userID, productID); err != nil {
		return nil, err
	}

	s.Invalidate(userID)
	return s.GetCart(ctx, userID)
}

func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	if err := s.repo.ClearCart(ctx, userID); err != nil {
		return err
	}

	s.Invalidate(userID)
	return nil
}

// Invalidate drops the cached cart. Failures are only logged; the entry
// expires on its own.
func (s *CartService) Invalidate(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		slog.Warn("cache invalidate failed", "user_id", userID, "error", err)
	}
}

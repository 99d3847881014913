package service

import (
	"context"
	"fmt"

	"github.com/fjod/go_cart/marketplace/internal/domain"
	"github.com/fjod/go_cart/marketplace/internal/repository"
)

type CatalogService struct {
	products repository.ProductRepository
}

func NewCatalogService(products repository.ProductRepository) *CatalogService {
	return &CatalogService{products: products}
}

func (s *CatalogService) Search(ctx context.Context, f domain.SearchFilter) (*domain.ProductPage, error) {
	if err := f.Normalize(); err != nil {
		return nil, err
	}

	products, total, err := s.products.Search(ctx, f)
	if err != nil {
		return nil, err
	}

	return &domain.ProductPage{
		Products:   products,
		Pagination: domain.NewPagination(f, total, len(products)),
	}, nil
}

// GetProduct returns the product and counts the read as a view.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.IncrementViews(ctx, id)
}

func (s *CatalogService) CreateProduct(ctx context.Context, sellerID string, p *domain.Product) (*domain.Product, error) {
	p.SellerID = sellerID
	p.IsAvailable = true
	p.Views = 0
	p.Likes = []string{}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id, requesterID string, patch domain.ProductPatch) (*domain.Product, error) {
	p, err := s.ownedProduct(ctx, id, requesterID, "update")
	if err != nil {
		return nil, err
	}

	if err := patch.Apply(p); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) SetAvailability(ctx context.Context, id, requesterID string, available bool) error {
	if _, err := s.ownedProduct(ctx, id, requesterID, "change availability of"); err != nil {
		return err
	}
	return s.products.SetAvailability(ctx, id, available)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id, requesterID string) error {
	if _, err := s.ownedProduct(ctx, id, requesterID, "delete"); err != nil {
		return err
	}
	return s.products.Delete(ctx, id, requesterID)
}

func (s *CatalogService) ListBySeller(ctx context.Context, sellerID string) ([]*domain.Product, error) {
	return s.products.ListBySeller(ctx, sellerID)
}

func (s *CatalogService) ToggleLike(ctx context.Context, id, userID string) (domain.LikeResult, error) {
	return s.products.ToggleLike(ctx, id, userID)
}

func (s *CatalogService) ownedProduct(ctx context.Context, id, requesterID, action string) (*domain.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.SellerID != requesterID {
		return nil, fmt.Errorf("%w: only the seller can %s this product", domain.ErrNotAuthorized, action)
	}
	return p, nil
}

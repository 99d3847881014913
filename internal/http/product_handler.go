package http

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fjod/go_cart/marketplace/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type CatalogService interface {
	Search(ctx context.Context, f domain.SearchFilter) (*domain.ProductPage, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, sellerID string, p *domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id, requesterID string, patch domain.ProductPatch) (*domain.Product, error)
	SetAvailability(ctx context.Context, id, requesterID string, available bool) error
	DeleteProduct(ctx context.Context, id, requesterID string) error
	ListBySeller(ctx context.Context, sellerID string) ([]*domain.Product, error)
	ToggleLike(ctx context.Context, id, userID string) (domain.LikeResult, error)
}

type ProductHandler struct {
	catalog CatalogService
	timeout time.Duration
}

func NewProductHandler(catalog CatalogService, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

type CreateProductRequestDTO struct {
	Title       string           `json:"title" validate:"required"`
	Description string           `json:"description" validate:"required"`
	Category    domain.Category  `json:"category" validate:"required"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Images      []string         `json:"images" validate:"max=10,dive,required"`
	Condition   domain.Condition `json:"condition" validate:"required"`
	Location    domain.Location  `json:"location"`
	Tags        []string         `json:"tags" validate:"max=20"`
}

type UpdateProductRequestDTO struct {
	Title       *string           `json:"title" validate:"omitempty,min=1"`
	Description *string           `json:"description" validate:"omitempty,min=1"`
	Category    *domain.Category  `json:"category"`
	Price       *decimal.Decimal  `json:"price"`
	Images      []string          `json:"images" validate:"omitempty,max=10,dive,required"`
	Condition   *domain.Condition `json:"condition"`
	IsAvailable *bool             `json:"is_available"`
	Location    *domain.Location  `json:"location"`
	Tags        []string          `json:"tags" validate:"omitempty,max=20"`
}

type AvailabilityRequestDTO struct {
	IsAvailable *bool `json:"is_available" validate:"required"`
}

// GET /api/products
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	filter, err := parseSearchFilter(r.URL.Query())
	if err != nil {
		respondErrorDetails(w, http.StatusBadRequest, "validation_error", "invalid query", err.Error())
		return
	}

	page, err := h.catalog.Search(ctx, filter)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, page)
}

func parseSearchFilter(q url.Values) (domain.SearchFilter, error) {
	f := domain.SearchFilter{
		Query:     q.Get("q"),
		Category:  domain.Category(q.Get("category")),
		SortBy:    domain.SortField(q.Get("sortBy")),
		SortOrder: domain.SortOrder(q.Get("sortOrder")),
	}

	var err error
	if f.MinPrice, err = parseDecimalParam(q, "minPrice"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = parseDecimalParam(q, "maxPrice"); err != nil {
		return f, err
	}
	if f.Page, err = parseIntParam(q, "page"); err != nil {
		return f, err
	}
	if f.Limit, err = parseIntParam(q, "limit"); err != nil {
		return f, err
	}
	return f, nil
}

func parseDecimalParam(q url.Values, key string) (*decimal.Decimal, error) {
	v := q.Get(key)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &d, nil
}

func parseIntParam(q url.Values, key string) (int, error) {
	v := q.Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}

// GET /api/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// POST /api/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondUnauthorized(w)
		return
	}

	var req CreateProductRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	product, err := h.catalog.CreateProduct(ctx, userID, &domain.Product{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Price:       *req.Price,
		Images:      nonNilStrings(req.Images),
		Condition:   req.Condition,
		Location:    req.Location,
		Tags:        nonNilStrings(req.Tags),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, product)
}

// PUT /api/products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondUnauthorized(w)
		return
	}

	var req UpdateProductRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	product, err := h.catalog.UpdateProduct(ctx, chi.URLParam(r, "id"), userID, domain.ProductPatch{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Images:      req.Images,
		Condition:   req.Condition,
		IsAvailable: req.IsAvailable,
		Location:    req.Location,
		Tags:        req.Tags,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// PATCH /api/products/{id}/availability
func (h *ProductHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondUnauthorized(w)
		return
	}

	var req AvailabilityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.catalog.SetAvailability(ctx, id, userID, *req.IsAvailable); err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"id": id, "is_available": *req.IsAvailable})
}

// DELETE /api/products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondUnauthorized(w)
		return
	}

	if err := h.catalog.DeleteProduct(ctx, chi.URLParam(r, "id"), userID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// GET /api/products/user/my-products
func (h *ProductHandler) MyProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondUnauthorized(w)
		return
	}

	products, err := h.catalog.ListBySeller(ctx, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if products == nil {
		products = []*domain.Product{}
	}

	respondJSON(w, http.StatusOK, products)
}

// POST /api/products/{id}/like
func (h *ProductHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondUnauthorized(w)
		return
	}

	res, err := h.catalog.ToggleLike(ctx, chi.URLParam(r, "id"), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, res)
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

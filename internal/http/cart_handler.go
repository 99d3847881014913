package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/marketplace/internal/domain"
	"github.com/go-chi/chi/v5"
)

type CartService interface {
	GetCartView(ctx context.Context, userID string) (*domain.CartView, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error)
	SetQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

type CartHandler struct {
	carts   CartService
	timeout time.Duration
}

func NewCartHandler(carts CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  *int   `json:"quantity" validate:"omitempty,min=1,max=99"`
}

// UpdateQuantityRequestDTO accepts zero or negative quantities, which remove the entry.
type UpdateQuantityRequestDTO struct {
	Quantity *int `json:"quantity" validate:"required,max=99"`
}

// GET /api/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondUnauthorized(w)
		return
	}

	view, err := h.carts.GetCartView(ctx, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// POST /api/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondUnauthorized(w)
		return
	}

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	cart, err := h.carts.AddItem(ctx, userID, req.ProductID, quantity)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, cart)
}

// PUT /api/cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondUnauthorized(w)
		return
	}

	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	cart, err := h.carts.SetQuantity(ctx, userID, productID, *req.Quantity)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

// DELETE /api/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondUnauthorized(w)
		return
	}

	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	cart, err := h.carts.RemoveItem(ctx, userID, productID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

// DELETE /api/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondUnauthorized(w)
		return
	}

	if err := h.carts.ClearCart(ctx, userID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}

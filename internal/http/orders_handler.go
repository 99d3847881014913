package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/marketplace/internal/domain"
	"github.com/fjod/go_cart/marketplace/internal/service"
	"github.com/go-chi/chi/v5"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type OrderService interface {
	Checkout(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error)
	GetOrder(ctx context.Context, id, requesterID string) (*domain.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error)
	ListBySeller(ctx context.Context, sellerID string) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id, requesterID string, status domain.OrderStatus) (*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderService
	timeout time.Duration
}

func NewOrdersHandler(orders OrderService, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

type AddressDTO struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Pincode string `json:"pincode" validate:"required"`
	Country string `json:"country"`
}

type CheckoutRequestDTO struct {
	ShippingAddress AddressDTO `json:"shipping_address"`
	PaymentMethod   string     `json:"payment_method" validate:"omitempty,oneof=cash_on_delivery upi card net_banking"`
	IdempotencyKey  string     `json:"idempotency_key" validate:"omitempty,max=128"`
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status" validate:"required"`
}

// POST /api/orders
func (h *OrdersHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondUnauthorized(w)
		return
	}

	var req CheckoutRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if key == "" {
		key = strings.TrimSpace(req.IdempotencyKey)
	}

	res, err := h.orders.Checkout(ctx, service.CheckoutRequest{
		BuyerID: userID,
		ShippingAddress: domain.Address{
			Street:  req.ShippingAddress.Street,
			City:    req.ShippingAddress.City,
			State:   req.ShippingAddress.State,
			Pincode: req.ShippingAddress.Pincode,
			Country: req.ShippingAddress.Country,
		},
		PaymentMethod:  domain.PaymentMethod(req.PaymentMethod),
		IdempotencyKey: key,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	respondJSON(w, status, res)
}

// GET /api/orders/my-orders
func (h *OrdersHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.orders.ListByBuyer)
}

// GET /api/orders/my-sales
func (h *OrdersHandler) MySales(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.orders.ListBySeller)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request, fetch func(context.Context, string) ([]*domain.Order, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondUnauthorized(w)
		return
	}

	orders, err := fetch(ctx, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}

	respondJSON(w, http.StatusOK, orders)
}

// GET /api/orders/{id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondUnauthorized(w)
		return
	}

	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		respondError(w, http.StatusBadRequest, "missing_order_id", "order id is required")
		return
	}

	order, err := h.orders.GetOrder(ctx, orderID, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// PUT /api/orders/{id}/status
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondUnauthorized(w)
		return
	}

	var req UpdateStatusRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orders.UpdateStatus(ctx, chi.URLParam(r, "id"), userID, domain.OrderStatus(req.Status))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fjod/go_cart/marketplace/internal/domain"
	"github.com/fjod/go_cart/marketplace/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxIdempotencyKeyLen = 128

// Publisher announces committed checkouts.
type Publisher interface {
	PublishOrdersCreated(ctx context.Context, checkoutID string, orders []*domain.Order) error
}

type CartInvalidator interface {
	Invalidate(userID string)
}

type CheckoutRequest struct {
	BuyerID         string
	ShippingAddress domain.Address
	PaymentMethod   domain.PaymentMethod
	IdempotencyKey  string
}

type CheckoutResult struct {
	CheckoutID        string          `json:"checkout_id"`
	Orders            []*domain.Order `json:"orders"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	SkippedProductIDs []string        `json:"skipped_product_ids,omitempty"`
	Replayed          bool            `json:"replayed"`
}

type OrderService struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	carts     repository.CartRepository
	tx        repository.TxRunner
	cartCache CartInvalidator
	publisher Publisher
	currency  string
	newID     func() string
}

func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	carts repository.CartRepository,
	tx repository.TxRunner,
	cartCache CartInvalidator,
	publisher Publisher,
	currency string,
) *OrderService {
	return &OrderService{
		orders:    orders,
		products:  products,
		carts:     carts,
		tx:        tx,
		cartCache: cartCache,
		publisher: publisher,
		currency:  currency,
		newID:     func() string { return uuid.NewString() },
	}
}

// Checkout converts the buyer's cart into one order per seller. Order
// creation, marking products sold and clearing the cart commit together.
func (s *OrderService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentCashOnDelivery
	}
	if !req.PaymentMethod.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", domain.ErrValidation, req.PaymentMethod)
	}
	if len(req.IdempotencyKey) > maxIdempotencyKeyLen {
		return nil, fmt.Errorf("%w: idempotency key is too long", domain.ErrValidation)
	}

	if req.IdempotencyKey != "" {
		result, err := s.replay(ctx, req.BuyerID, req.IdempotencyKey)
		if err != nil || result != nil {
			return result, err
		}
	}

	checkoutID := req.IdempotencyKey
	if checkoutID == "" {
		checkoutID = s.newID()
	}

	// the cart is read inside the transaction; a concurrent add conflicts with ClearCart
	var plan *checkoutPlan
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		plan, err = s.plan(txCtx, req, checkoutID)
		if err != nil {
			return err
		}
		for _, o := range plan.orders {
			if err := s.orders.Create(txCtx, o); err != nil {
				return err
			}
		}
		for _, l := range plan.lines {
			if err := s.products.MarkSold(txCtx, l.ProductID); err != nil {
				return err
			}
		}
		return s.carts.ClearCart(txCtx, req.BuyerID)
	})
	if errors.Is(err, domain.ErrDuplicateCheckout) && req.IdempotencyKey != "" {
		// a concurrent request with the same key committed first
		result, replayErr := s.replay(ctx, req.BuyerID, req.IdempotencyKey)
		if replayErr == nil && result != nil {
			return result, nil
		}
	}
	if err != nil {
		return nil, err
	}

	s.cartCache.Invalidate(req.BuyerID)
	if err := s.publisher.PublishOrdersCreated(ctx, checkoutID, plan.orders); err != nil {
		slog.ErrorContext(ctx, "failed to publish orders created", "checkout_id", checkoutID, "error", err)
	}

	slog.InfoContext(ctx, "checkout completed",
		"checkout_id", checkoutID,
		"buyer_id", req.BuyerID,
		"orders", len(plan.orders),
		"skipped", len(plan.skipped),
	)

	return &CheckoutResult{
		CheckoutID:        checkoutID,
		Orders:            plan.orders,
		TotalAmount:       domain.GrandTotal(plan.groups),
		SkippedProductIDs: plan.skipped,
	}, nil
}

type checkoutPlan struct {
	lines   []domain.CheckoutLine
	groups  []domain.SellerGroup
	orders  []*domain.Order
	skipped []string
}

// plan reads the cart and prices it into one validated order per seller.
func (s *OrderService) plan(ctx context.Context, req CheckoutRequest, checkoutID string) (*checkoutPlan, error) {
	cart, err := s.carts.GetCart(ctx, req.BuyerID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return nil, domain.ErrEmptyCart
	}
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	products, err := s.products.GetByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, err
	}

	lines, skipped, err := resolveLines(cart, products, req.BuyerID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: none of the products in the cart exist anymore", domain.ErrEmptyCart)
	}

	groups := domain.SplitBySeller(lines)
	orders := domain.BuildOrders(groups, domain.OrderParams{
		CheckoutID:      checkoutID,
		BuyerID:         req.BuyerID,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Currency:        s.currency,
	})
	for _, o := range orders {
		if err := o.Validate(); err != nil {
			return nil, err
		}
	}
	return &checkoutPlan{lines: lines, groups: groups, orders: orders, skipped: skipped}, nil
}

// resolveLines prices each cart entry from the catalog. Products that no
// longer exist are skipped; anything unpurchasable rejects the checkout.
func resolveLines(cart *domain.Cart, products map[string]*domain.Product, buyerID string) ([]domain.CheckoutLine, []string, error) {
	lines := make([]domain.CheckoutLine, 0, len(cart.Items))
	var skipped []string

	for _, item := range cart.Items {
		p, ok := products[item.ProductID]
		if !ok {
			skipped = append(skipped, item.ProductID)
			continue
		}
		if !p.IsAvailable {
			return nil, nil, fmt.Errorf("%w: %s", domain.ErrProductUnavailable, p.Title)
		}
		if p.SellerID == buyerID {
			return nil, nil, domain.ErrSelfPurchase
		}
		lines = append(lines, domain.CheckoutLine{
			ProductID: p.ID,
			SellerID:  p.SellerID,
			Title:     p.Title,
			Price:     p.Price,
			Quantity:  item.Quantity,
		})
	}
	return lines, skipped, nil
}

// replay returns the result of an earlier checkout with the same key, or nil
// when there is none.
func (s *OrderService) replay(ctx context.Context, buyerID, checkoutID string) (*CheckoutResult, error) {
	orders, err := s.orders.ListByCheckout(ctx, buyerID, checkoutID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}

	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.TotalAmount)
	}
	return &CheckoutResult{
		CheckoutID:  checkoutID,
		Orders:      orders,
		TotalAmount: total,
		Replayed:    true,
	}, nil
}

// GetOrder is visible to the buyer and the seller only.
func (s *OrderService) GetOrder(ctx context.Context, id, requesterID string) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.Participant(requesterID) {
		return nil, fmt.Errorf("%w: not a participant of this order", domain.ErrNotAuthorized)
	}
	return o, nil
}

func (s *OrderService) ListByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error) {
	return s.orders.ListByBuyer(ctx, buyerID)
}

func (s *OrderService) ListBySeller(ctx context.Context, sellerID string) ([]*domain.Order, error) {
	return s.orders.ListBySeller(ctx, sellerID)
}

// UpdateStatus is allowed for the order's seller only.
func (s *OrderService) UpdateStatus(ctx context.Context, id, requesterID string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}

	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.SellerID != requesterID {
		return nil, fmt.Errorf("%w: only the seller can update order status", domain.ErrNotAuthorized)
	}
	if !o.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: cannot change status from %s to %s", domain.ErrValidation, o.Status, status)
	}

	if err := s.orders.UpdateStatus(ctx, id, requesterID, o.Status, status); err != nil {
		return nil, err
	}
	o.Status = status
	return o, nil
}

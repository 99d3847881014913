package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo allows any move out of a non-terminal status, and a no-op
// write of the current status.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	return !s.IsTerminal()
}

func (s OrderStatus) String() string {
	return string(s)
}

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentUPI            PaymentMethod = "upi"
	PaymentCard           PaymentMethod = "card"
	PaymentNetBanking     PaymentMethod = "net_banking"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCashOnDelivery, PaymentUPI, PaymentCard, PaymentNetBanking:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

const DefaultCountry = "India"

type OrderLineItem struct {
	ProductID string          `json:"product_id"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

func (l OrderLineItem) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Order struct {
	ID              string          `json:"id"`
	CheckoutID      string          `json:"checkout_id"`
	BuyerID         string          `json:"buyer_id"`
	SellerID        string          `json:"seller_id"`
	Lines           []OrderLineItem `json:"products"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Currency        string          `json:"currency"`
	Status          OrderStatus     `json:"status"`
	ShippingAddress Address         `json:"shipping_address"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Participant reports whether userID is the buyer or the seller of the order.
func (o *Order) Participant(userID string) bool {
	return userID != "" && (o.BuyerID == userID || o.SellerID == userID)
}

func (o *Order) Validate() error {
	switch {
	case o.BuyerID == "" || o.SellerID == "":
		return fmt.Errorf("%w: order needs a buyer and a seller", ErrValidation)
	case len(o.Lines) == 0:
		return fmt.Errorf("%w: order has no products", ErrValidation)
	case !o.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrValidation, o.Status)
	case !o.PaymentMethod.Valid():
		return fmt.Errorf("%w: unknown payment method %q", ErrValidation, o.PaymentMethod)
	}

	total := decimal.Zero
	for _, l := range o.Lines {
		if l.Quantity < 1 {
			return fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
		}
		if l.Price.IsNegative() {
			return fmt.Errorf("%w: price must not be negative", ErrValidation)
		}
		total = total.Add(l.Subtotal())
	}
	if !total.Equal(o.TotalAmount) {
		return fmt.Errorf("%w: total %s does not match lines %s", ErrValidation, o.TotalAmount, total)
	}
	return nil
}

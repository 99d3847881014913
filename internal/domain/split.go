package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutLine is a cart entry resolved against the catalog at checkout time.
type CheckoutLine struct {
	ProductID string
	SellerID  string
	Title     string
	Price     decimal.Decimal
	Quantity  int
}

type SellerGroup struct {
	SellerID string
	Lines    []OrderLineItem
	Total    decimal.Decimal
}

// SplitBySeller partitions lines into one group per seller. Groups keep the
// order in which each seller first appears, and lines keep cart order.
func SplitBySeller(lines []CheckoutLine) []SellerGroup {
	index := make(map[string]int)
	groups := make([]SellerGroup, 0)

	for _, l := range lines {
		i, ok := index[l.SellerID]
		if !ok {
			i = len(groups)
			index[l.SellerID] = i
			groups = append(groups, SellerGroup{SellerID: l.SellerID, Total: decimal.Zero})
		}

		item := OrderLineItem{
			ProductID: l.ProductID,
			Title:     l.Title,
			Quantity:  l.Quantity,
			Price:     l.Price,
		}
		groups[i].Lines = append(groups[i].Lines, item)
		groups[i].Total = groups[i].Total.Add(item.Subtotal())
	}

	return groups
}

func GrandTotal(groups []SellerGroup) decimal.Decimal {
	total := decimal.Zero
	for _, g := range groups {
		total = total.Add(g.Total)
	}
	return total
}

type OrderParams struct {
	CheckoutID      string
	BuyerID         string
	ShippingAddress Address
	PaymentMethod   PaymentMethod
	Currency        string
}

// BuildOrders materializes one pending order per seller group.
func BuildOrders(groups []SellerGroup, p OrderParams) []*Order {
	now := time.Now().UTC()
	if p.ShippingAddress.Country == "" {
		p.ShippingAddress.Country = DefaultCountry
	}
	if p.PaymentMethod == "" {
		p.PaymentMethod = PaymentCashOnDelivery
	}

	orders := make([]*Order, 0, len(groups))
	for _, g := range groups {
		orders = append(orders, &Order{
			CheckoutID:      p.CheckoutID,
			BuyerID:         p.BuyerID,
			SellerID:        g.SellerID,
			Lines:           g.Lines,
			TotalAmount:     g.Total,
			Currency:        p.Currency,
			Status:          OrderStatusPending,
			ShippingAddress: p.ShippingAddress,
			PaymentMethod:   p.PaymentMethod,
			PaymentStatus:   PaymentStatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	return orders
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    string     `bson:"user_id" json:"user_id"`
	Items     []CartItem `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

type CartItem struct {
	ProductID string    `bson:"product_id" json:"product_id"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	AddedAt   time.Time `bson:"added_at" json:"added_at"`
}

func NewCart(userID string) *Cart {
	now := time.Now().UTC()
	return &Cart{
		UserID:    userID,
		Items:     []CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

func (c *Cart) ProductIDs() []string {
	ids := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

// Find returns the entry for productID, if present.
func (c *Cart) Find(productID string) (CartItem, bool) {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return CartItem{}, false
}

type ProductSummary struct {
	ID          string          `json:"id"`
	SellerID    string          `json:"seller_id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Images      []string        `json:"images"`
	Condition   Condition       `json:"condition"`
	IsAvailable bool            `json:"is_available"`
}

type CartLine struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	AddedAt   time.Time       `json:"added_at"`
	Product   *ProductSummary `json:"product,omitempty"`
}

type CartView struct {
	UserID      string          `json:"user_id"`
	Items       []CartLine      `json:"items"`
	TotalItems  int             `json:"total_items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewCartView joins cart entries with their products. Entries whose product
// is gone have no summary. Only available products count toward the total.
func NewCartView(cart *Cart, products map[string]*Product) *CartView {
	view := &CartView{
		UserID:      cart.UserID,
		Items:       make([]CartLine, 0, len(cart.Items)),
		TotalAmount: decimal.Zero,
		UpdatedAt:   cart.UpdatedAt,
	}

	for _, item := range cart.Items {
		line := CartLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			AddedAt:   item.AddedAt,
		}
		if p, ok := products[item.ProductID]; ok {
			line.Product = &ProductSummary{
				ID:          p.ID,
				SellerID:    p.SellerID,
				Title:       p.Title,
				Price:       p.Price,
				Images:      p.Images,
				Condition:   p.Condition,
				IsAvailable: p.IsAvailable,
			}
			if p.IsAvailable {
				view.TotalAmount = view.TotalAmount.Add(p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
			}
		}
		view.TotalItems += item.Quantity
		view.Items = append(view.Items, line)
	}
	return view
}

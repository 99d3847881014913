package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fjod/go_cart/marketplace/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type addressDocument struct {
	Street  string `bson:"street,omitempty"`
	City    string `bson:"city,omitempty"`
	State   string `bson:"state,omitempty"`
	Pincode string `bson:"pincode,omitempty"`
	Country string `bson:"country,omitempty"`
}

type orderLineDocument struct {
	ProductID string               `bson:"product_id"`
	Title     string               `bson:"title"`
	Quantity  int                  `bson:"quantity"`
	Price     primitive.Decimal128 `bson:"price"`
}

type orderDocument struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty"`
	CheckoutID      string               `bson:"checkout_id"`
	BuyerID         string               `bson:"buyer_id"`
	SellerID        string               `bson:"seller_id"`
	Products        []orderLineDocument  `bson:"products"`
	TotalAmount     primitive.Decimal128 `bson:"total_amount"`
	Currency        string               `bson:"currency"`
	Status          string               `bson:"status"`
	ShippingAddress addressDocument      `bson:"shipping_address"`
	PaymentMethod   string               `bson:"payment_method"`
	PaymentStatus   string               `bson:"payment_status"`
	CreatedAt       time.Time            `bson:"created_at"`
	UpdatedAt       time.Time            `bson:"updated_at"`
}

func newOrderDocument(o *domain.Order) (*orderDocument, error) {
	total, err := toDecimal128(o.TotalAmount)
	if err != nil {
		return nil, err
	}

	lines := make([]orderLineDocument, 0, len(o.Lines))
	for _, l := range o.Lines {
		price, err := toDecimal128(l.Price)
		if err != nil {
			return nil, err
		}
		lines = append(lines, orderLineDocument{
			ProductID: l.ProductID,
			Title:     l.Title,
			Quantity:  l.Quantity,
			Price:     price,
		})
	}

	return &orderDocument{
		CheckoutID:      o.CheckoutID,
		BuyerID:         o.BuyerID,
		SellerID:        o.SellerID,
		Products:        lines,
		TotalAmount:     total,
		Currency:        o.Currency,
		Status:          string(o.Status),
		ShippingAddress: addressDocument(o.ShippingAddress),
		PaymentMethod:   string(o.PaymentMethod),
		PaymentStatus:   string(o.PaymentStatus),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}, nil
}

func (d *orderDocument) toDomain() (*domain.Order, error) {
	total, err := fromDecimal128(d.TotalAmount)
	if err != nil {
		return nil, err
	}

	lines := make([]domain.OrderLineItem, 0, len(d.Products))
	for _, l := range d.Products {
		price, err := fromDecimal128(l.Price)
		if err != nil {
			return nil, err
		}
		lines = append(lines, domain.OrderLineItem{
			ProductID: l.ProductID,
			Title:     l.Title,
			Quantity:  l.Quantity,
			Price:     price,
		})
	}

	return &domain.Order{
		ID:              d.ID.Hex(),
		CheckoutID:      d.CheckoutID,
		BuyerID:         d.BuyerID,
		SellerID:        d.SellerID,
		Lines:           lines,
		TotalAmount:     total,
		Currency:        d.Currency,
		Status:          domain.OrderStatus(d.Status),
		ShippingAddress: domain.Address(d.ShippingAddress),
		PaymentMethod:   domain.PaymentMethod(d.PaymentMethod),
		PaymentStatus:   domain.PaymentStatus(d.PaymentStatus),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}, nil
}

type orderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) OrderRepository {
	return &orderRepository{
		collection: db.Collection(ordersCollection),
	}
}

func (r *orderRepository) Create(ctx context.Context, o *domain.Order) error {
	doc, err := newOrderDocument(o)
	if err != nil {
		return err
	}

	// keep the id stable when a transaction body is retried
	if o.ID == "" {
		o.ID = primitive.NewObjectID().Hex()
	}
	if doc.ID, err = primitive.ObjectIDFromHex(o.ID); err != nil {
		return fmt.Errorf("%w: invalid order id", domain.ErrValidation)
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: checkout %s seller %s", domain.ErrDuplicateCheckout, o.CheckoutID, o.SellerID)
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	oid, err := objectID(id, ErrOrderNotFound)
	if err != nil {
		return nil, err
	}

	var doc orderDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return doc.toDomain()
}

func (r *orderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{"buyer_id": buyerID})
}

func (r *orderRepository) ListBySeller(ctx context.Context, sellerID string) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{"seller_id": sellerID})
}

func (r *orderRepository) ListByCheckout(ctx context.Context, buyerID, checkoutID string) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{"buyer_id": buyerID, "checkout_id": checkoutID})
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id, sellerID string, from, next domain.OrderStatus) error {
	oid, err := objectID(id, ErrOrderNotFound)
	if err != nil {
		return err
	}

	filter := bson.M{"_id": oid, "seller_id": sellerID, "status": string(from)}
	update := bson.M{"$set": bson.M{"status": string(next), "updated_at": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *orderRepository) find(ctx context.Context, filter bson.M) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}

	orders := make([]*domain.Order, 0, len(docs))
	for i := range docs {
		o, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

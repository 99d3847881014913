package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fjod/go_cart/marketplace/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type cartRepository struct {
	collection *mongo.Collection
}

func NewCartRepository(db *mongo.Database) CartRepository {
	return &cartRepository{
		collection: db.Collection(cartsCollection),
	}
}

func (m *cartRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart

	err := m.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&cart)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return &cart, nil
}

func (m *cartRepository) GetOrCreateCart(ctx context.Context, userID string) (*domain.Cart, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$setOnInsert": bson.M{
			"items":      bson.A{},
			"created_at": now,
			"updated_at": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var cart domain.Cart
	err := m.collection.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, update, opts).Decode(&cart)
	if mongo.IsDuplicateKeyError(err) {
		// a concurrent request created it first
		return m.GetCart(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get or create cart: %w", err)
	}

	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return &cart, nil
}

// AddItem merges quantity into an existing entry, or appends a new one and
// creates the cart when needed.
func (m *cartRepository) AddItem(ctx context.Context, userID, productID string, quantity int) error {
	for attempt := 0; attempt < 2; attempt++ {
		merged, err := m.incrementItem(ctx, userID, productID, quantity)
		if err != nil {
			return err
		}
		if merged {
			return nil
		}

		err = m.pushItem(ctx, userID, productID, quantity)
		if err == nil {
			return nil
		}
		// lost a race with a concurrent add; merge on the next pass
		if !mongo.IsDuplicateKeyError(err) {
			return err
		}
	}
	return fmt.Errorf("failed to add item: concurrent cart updates")
}

func (m *cartRepository) incrementItem(ctx context.Context, userID, productID string, quantity int) (bool, error) {
	filter := bson.M{
		"user_id":          userID,
		"items.product_id": productID,
	}
	update := bson.M{
		"$inc": bson.M{"items.$.quantity": quantity},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to update existing item: %w", err)
	}
	return result.MatchedCount > 0, nil
}

func (m *cartRepository) pushItem(ctx context.Context, userID, productID string, quantity int) error {
	now := time.Now().UTC()
	item := domain.CartItem{
		ProductID: productID,
		Quantity:  quantity,
		AddedAt:   now,
	}
	filter := bson.M{
		"user_id":          userID,
		"items.product_id": bson.M{"$ne": productID},
	}
	update := bson.M{
		"$push":        bson.M{"items": item},
		"$set":         bson.M{"updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}

	_, err := m.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return err
		}
		return fmt.Errorf("failed to add new item: %w", err)
	}
	return nil
}

func (m *cartRepository) UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) error {
	filter := bson.M{
		"user_id":          userID,
		"items.product_id": productID,
	}

	update := bson.M{
		"$set": bson.M{
			"items.$[elem].quantity": quantity,
			"updated_at":             time.Now().UTC(),
		},
	}

	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"elem.product_id": productID},
		},
	})

	result, err := m.collection.UpdateOne(ctx, filter, update, arrayFilters)
	if err != nil {
		return fmt.Errorf("failed to update item quantity: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (m *cartRepository) RemoveItem(ctx context.Context, userID, productID string) error {
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$pull": bson.M{
			"items": bson.M{"product_id": productID},
		},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

// ClearCart empties the cart and keeps the document.
func (m *cartRepository) ClearCart(ctx context.Context, userID string) error {
	update := bson.M{
		"$set": bson.M{
			"items":      bson.A{},
			"updated_at": time.Now().UTC(),
		},
	}

	result, err := m.collection.UpdateOne(ctx, bson.M{"user_id": userID}, update)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

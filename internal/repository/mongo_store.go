package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	usersCollection    = "users"
	productsCollection = "products"
	cartsCollection    = "carts"
	ordersCollection   = "orders"
)

// Store groups the Mongo-backed repositories over one database.
type Store struct {
	db *mongo.Database

	Products ProductRepository
	Carts    CartRepository
	Orders   OrderRepository
	Users    UserRepository
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		db:       db,
		Products: NewProductRepository(db),
		Carts:    NewCartRepository(db),
		Orders:   NewOrderRepository(db),
		Users:    NewUserRepository(db),
	}
}

func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

func (s *Store) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

// objectID parses a hex id. Malformed ids can never match a document, so
// they map to notFound.
func objectID(id string, notFound error) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, notFound
	}
	return oid, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("failed to convert %s to decimal128: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to convert decimal128 %s: %w", v, err)
	}
	return d, nil
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fjod/go_cart/marketplace/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	Phone        string             `bson:"phone,omitempty"`
	Role         string             `bson:"role"`
	Address      addressDocument    `bson:"address"`
	ProfileImage string             `bson:"profile_image,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func (d *userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Phone:        d.Phone,
		Role:         domain.Role(d.Role),
		Address:      domain.Address(d.Address),
		ProfileImage: d.ProfileImage,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type userRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) UserRepository {
	return &userRepository{
		collection: db.Collection(usersCollection),
	}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	doc := userDocument{
		ID:           primitive.NewObjectID(),
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Phone:        u.Phone,
		Role:         string(u.Role),
		Address:      addressDocument(u.Address),
		ProfileImage: u.ProfileImage,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	u.ID = doc.ID.Hex()
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := objectID(id, ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userRepository) UpdateProfile(ctx context.Context, u *domain.User) error {
	oid, err := objectID(u.ID, ErrUserNotFound)
	if err != nil {
		return err
	}
	u.UpdatedAt = time.Now().UTC()

	update := bson.M{
		"$set": bson.M{
			"username":      u.Username,
			"phone":         u.Phone,
			"address":       addressDocument(u.Address),
			"profile_image": u.ProfileImage,
			"updated_at":    u.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.toDomain(), nil
}

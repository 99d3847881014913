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

type locationDocument struct {
	City    string `bson:"city,omitempty"`
	State   string `bson:"state,omitempty"`
	Pincode string `bson:"pincode,omitempty"`
}

type productDocument struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	SellerID    string               `bson:"seller_id"`
	Title       string               `bson:"title"`
	Description string               `bson:"description"`
	Category    string               `bson:"category"`
	Price       primitive.Decimal128 `bson:"price"`
	Images      []string             `bson:"images"`
	Condition   string               `bson:"condition"`
	IsAvailable bool                 `bson:"is_available"`
	Location    locationDocument     `bson:"location"`
	Tags        []string             `bson:"tags"`
	Views       int64                `bson:"views"`
	Likes       []string             `bson:"likes"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

func newProductDocument(p *domain.Product) (*productDocument, error) {
	price, err := toDecimal128(p.Price)
	if err != nil {
		return nil, err
	}
	doc := &productDocument{
		SellerID:    p.SellerID,
		Title:       p.Title,
		Description: p.Description,
		Category:    string(p.Category),
		Price:       price,
		Images:      nonNil(p.Images),
		Condition:   string(p.Condition),
		IsAvailable: p.IsAvailable,
		Location:    locationDocument(p.Location),
		Tags:        nonNil(p.Tags),
		Views:       p.Views,
		Likes:       nonNil(p.Likes),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.ID != "" {
		if doc.ID, err = objectID(p.ID, ErrProductNotFound); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (d *productDocument) toDomain() (*domain.Product, error) {
	price, err := fromDecimal128(d.Price)
	if err != nil {
		return nil, err
	}
	return &domain.Product{
		ID:          d.ID.Hex(),
		SellerID:    d.SellerID,
		Title:       d.Title,
		Description: d.Description,
		Category:    domain.Category(d.Category),
		Price:       price,
		Images:      nonNil(d.Images),
		Condition:   domain.Condition(d.Condition),
		IsAvailable: d.IsAvailable,
		Location:    domain.Location(d.Location),
		Tags:        nonNil(d.Tags),
		Views:       d.Views,
		Likes:       nonNil(d.Likes),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

type productRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) ProductRepository {
	return &productRepository{
		collection: db.Collection(productsCollection),
	}
}

func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	p.ID = ""

	doc, err := newProductDocument(p)
	if err != nil {
		return err
	}
	doc.ID = primitive.NewObjectID()

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	p.ID = doc.ID.Hex()
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := objectID(id, ErrProductNotFound)
	if err != nil {
		return nil, err
	}

	var doc productDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return doc.toDomain()
}

func (r *productRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		// unknown ids are simply absent from the result
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	result := make(map[string]*domain.Product, len(oids))
	if len(oids) == 0 {
		return result, nil
	}

	products, err := r.find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}

func (r *productRepository) Search(ctx context.Context, f domain.SearchFilter) ([]*domain.Product, int64, error) {
	filter, err := searchFilter(f)
	if err != nil {
		return nil, 0, err
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	direction := -1
	if f.SortOrder == domain.SortAsc {
		direction = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: sortKey(f.SortBy), Value: direction}, {Key: "_id", Value: direction}}).
		SetSkip(f.Skip()).
		SetLimit(int64(f.Limit))

	products, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func searchFilter(f domain.SearchFilter) (bson.M, error) {
	filter := bson.M{"is_available": true}
	if f.Query != "" {
		filter["$text"] = bson.M{"$search": f.Query}
	}
	if f.Category != "" {
		filter["category"] = string(f.Category)
	}

	price := bson.M{}
	if f.MinPrice != nil {
		v, err := toDecimal128(*f.MinPrice)
		if err != nil {
			return nil, err
		}
		price["$gte"] = v
	}
	if f.MaxPrice != nil {
		v, err := toDecimal128(*f.MaxPrice)
		if err != nil {
			return nil, err
		}
		price["$lte"] = v
	}
	if len(price) > 0 {
		filter["price"] = price
	}
	return filter, nil
}

func sortKey(field domain.SortField) string {
	switch field {
	case domain.SortByPrice:
		return "price"
	case domain.SortByViews:
		return "views"
	case domain.SortByTitle:
		return "title"
	default:
		return "created_at"
	}
}

func (r *productRepository) ListBySeller(ctx context.Context, sellerID string) ([]*domain.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"seller_id": sellerID}, opts)
}

func (r *productRepository) Update(ctx context.Context, p *domain.Product) error {
	doc, err := newProductDocument(p)
	if err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()

	update := bson.M{
		"$set": bson.M{
			"title":        doc.Title,
			"description":  doc.Description,
			"category":     doc.Category,
			"price":        doc.Price,
			"images":       doc.Images,
			"condition":    doc.Condition,
			"is_available": doc.IsAvailable,
			"location":     doc.Location,
			"tags":         doc.Tags,
			"updated_at":   p.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": doc.ID, "seller_id": p.SellerID}, update)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id, sellerID string) error {
	oid, err := objectID(id, ErrProductNotFound)
	if err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid, "seller_id": sellerID})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepository) SetAvailability(ctx context.Context, id string, available bool) error {
	oid, err := objectID(id, ErrProductNotFound)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{"is_available": available, "updated_at": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to set availability: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepository) MarkSold(ctx context.Context, id string) error {
	oid, err := objectID(id, ErrProductNotFound)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{"is_available": false, "updated_at": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid, "is_available": true}, update)
	if err != nil {
		return fmt.Errorf("failed to mark product sold: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", domain.ErrProductUnavailable, id)
	}
	return nil
}

func (r *productRepository) IncrementViews(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := objectID(id, ErrProductNotFound)
	if err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc productDocument
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"views": 1}}, opts).Decode(&doc)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to increment views: %w", err)
	}
	return doc.toDomain()
}

func (r *productRepository) ToggleLike(ctx context.Context, id, userID string) (domain.LikeResult, error) {
	oid, err := objectID(id, ErrProductNotFound)
	if err != nil {
		return domain.LikeResult{}, err
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"likes": 1})

	var doc productDocument

	// like, unless already liked
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "likes": bson.M{"$ne": userID}},
		bson.M{"$push": bson.M{"likes": userID}},
		opts,
	).Decode(&doc)
	if err == nil {
		return domain.LikeResult{IsLiked: true, LikesCount: len(doc.Likes)}, nil
	}
	if !isNoDocuments(err) {
		return domain.LikeResult{}, fmt.Errorf("failed to like product: %w", err)
	}

	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "likes": userID},
		bson.M{"$pull": bson.M{"likes": userID}},
		opts,
	).Decode(&doc)
	if err != nil {
		if isNoDocuments(err) {
			return domain.LikeResult{}, ErrProductNotFound
		}
		return domain.LikeResult{}, fmt.Errorf("failed to unlike product: %w", err)
	}
	return domain.LikeResult{IsLiked: false, LikesCount: len(doc.Likes)}, nil
}

func (r *productRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*domain.Product, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]*domain.Product, 0, len(docs))
	for i := range docs {
		p, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

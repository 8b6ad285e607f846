package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_bookstore/cart-service/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// cartDocument is the stored form of a cart. Money is kept as decimal strings
// so no precision is lost to BSON doubles.
type cartDocument struct {
	UserID     string         `bson:"user_id"`
	Items      []lineDocument `bson:"items"`
	CouponCode string         `bson:"coupon_code,omitempty"`
	Version    int64          `bson:"version"`
	CreatedAt  time.Time      `bson:"created_at"`
	UpdatedAt  time.Time      `bson:"updated_at"`
}

type lineDocument struct {
	BookID    string    `bson:"book_id"`
	Title     string    `bson:"title"`
	Quantity  int32     `bson:"quantity"`
	UnitPrice string    `bson:"unit_price"`
	AddedAt   time.Time `bson:"added_at"`
}

func toDocument(c *domain.Cart) cartDocument {
	doc := cartDocument{
		UserID:     c.UserID,
		Items:      make([]lineDocument, len(c.Items)),
		CouponCode: c.CouponCode,
		Version:    c.Version,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
	for i, item := range c.Items {
		doc.Items[i] = lineDocument{
			BookID:    item.BookID,
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.String(),
			AddedAt:   item.AddedAt,
		}
	}
	return doc
}

func (d cartDocument) toDomain() (*domain.Cart, error) {
	c := &domain.Cart{
		UserID:     d.UserID,
		CouponCode: d.CouponCode,
		Version:    d.Version,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
	if len(d.Items) > 0 {
		c.Items = make([]domain.CartLineItem, len(d.Items))
	}
	for i, item := range d.Items {
		price, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("bad unit price %q for %s: %w", item.UnitPrice, item.BookID, err)
		}
		c.Items[i] = domain.CartLineItem{
			BookID:    item.BookID,
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: price,
			AddedAt:   item.AddedAt,
		}
	}
	return c, nil
}

type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		collection: db.Collection("carts"),
	}
}

func (m *MongoRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var doc cartDocument

	filter := bson.M{"user_id": userID}
	err := m.collection.FindOne(ctx, filter).Decode(&doc)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return doc.toDomain()
}

func (m *MongoRepository) SaveCart(ctx context.Context, cart *domain.Cart, expectedVersion int64) error {
	doc := toDocument(cart)
	doc.Version = expectedVersion + 1

	if expectedVersion == 0 {
		_, err := m.collection.InsertOne(ctx, doc)
		if mongo.IsDuplicateKeyError(err) {
			return ErrVersionConflict
		}
		if err != nil {
			return fmt.Errorf("failed to create cart: %w", err)
		}
		cart.Version = doc.Version
		return nil
	}

	filter := bson.M{"user_id": cart.UserID, "version": expectedVersion}
	result, err := m.collection.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrVersionConflict
	}

	cart.Version = doc.Version
	return nil
}

func (m *MongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

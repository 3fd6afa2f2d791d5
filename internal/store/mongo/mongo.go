// Package mongo stores mappings in a MongoDB "urls" collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shivamsaksham/Mini-Url-Shortener/internal/core"
)

const collectionName = "urls"

type document struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	OriginalURL string             `bson:"originalUrl"`
	ShortCode   string             `bson:"shortCode"`
	CreatedAt   time.Time          `bson:"createdAt"`
	ExpiryDate  *time.Time         `bson:"expiryDate"`
	ClickCount  int64              `bson:"clickCount"`
}

// Store implements core.Store backed by MongoDB.
type Store struct {
	client *mongo.Client
	urls   *mongo.Collection
}

// Open connects to uri, verifies the connection and ensures indexes on database.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5 * time.Second).
		SetSocketTimeout(45 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &Store{client: client, urls: client.Database(database).Collection(collectionName)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.urls.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "shortCode", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "originalUrl", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) FindByOriginalURL(ctx context.Context, originalURL string) (*core.Mapping, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	return s.findOne(ctx, bson.M{"originalUrl": originalURL}, opts)
}

func (s *Store) FindByShortCode(ctx context.Context, code string) (*core.Mapping, error) {
	return s.findOne(ctx, bson.M{"shortCode": code})
}

func (s *Store) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*core.Mapping, error) {
	var doc document
	err := s.urls.FindOne(ctx, filter, opts...).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return doc.toMapping(), nil
}

// Insert adds m; a duplicate shortCode is core.ErrConflict.
func (s *Store) Insert(ctx context.Context, m *core.Mapping) error {
	doc := fromMapping(m)
	res, err := s.urls.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return core.ErrConflict
		}
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		m.ID = oid.Hex()
	}
	return nil
}

// Save overwrites the mutable fields of the document with m's short code.
func (s *Store) Save(ctx context.Context, m *core.Mapping) error {
	update := bson.M{"$set": bson.M{
		"originalUrl": m.OriginalURL,
		"expiryDate":  utcPtr(m.ExpiryDate),
		"clickCount":  m.ClickCount,
	}}
	res, err := s.urls.UpdateOne(ctx, bson.M{"shortCode": m.ShortCode}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteExpiredBefore removes documents whose expiryDate is before now. Null expiry never matches $lt.
func (s *Store) DeleteExpiredBefore(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.urls.DeleteMany(ctx, bson.M{"expiryDate": bson.M{"$lt": now.UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func fromMapping(m *core.Mapping) document {
	return document{
		OriginalURL: m.OriginalURL,
		ShortCode:   m.ShortCode,
		CreatedAt:   m.CreatedAt.UTC(),
		ExpiryDate:  utcPtr(m.ExpiryDate),
		ClickCount:  m.ClickCount,
	}
}

func (d document) toMapping() *core.Mapping {
	m := &core.Mapping{
		ID:          d.ID.Hex(),
		ShortCode:   d.ShortCode,
		OriginalURL: d.OriginalURL,
		CreatedAt:   d.CreatedAt.UTC(),
		ExpiryDate:  utcPtr(d.ExpiryDate),
		ClickCount:  d.ClickCount,
	}
	return m
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

var _ core.Store = (*Store)(nil)

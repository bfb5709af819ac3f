// Package mongo stores object catalogs in a MongoDB collection.
//
// Each catalog is one document keyed by a unique "name" field, with the
// objects embedded as an array:
//
//	{ "name": "sol", "description": "...", "objects": [ {...}, ... ] }
//
// [Store] implements [catalog.Store], so a MongoDB collection can back the
// HTTP server or be chained in front of the built-in catalogs.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/orrery/pkg/catalog"
	"github.com/matzehuels/orrery/pkg/errors"
)

// Defaults used by Connect.
const (
	DefaultDatabase   = "orrery"
	DefaultCollection = "catalogs"

	connectTimeout = 10 * time.Second
)

// Store is a catalog store over a MongoDB collection.
type Store struct {
	coll   *mongo.Collection
	client *mongo.Client // nil when the collection is borrowed
}

// Connect dials uri, verifies the connection and returns a store over
// database.catalogs. An empty database uses DefaultDatabase.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	if database == "" {
		database = DefaultDatabase
	}
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(connectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := &Store{coll: client.Database(database).Collection(DefaultCollection), client: client}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// NewStore wraps an existing collection. Close does not disconnect the
// collection's client.
func NewStore(coll *mongo.Collection) *Store {
	return &Store{coll: coll}
}

// EnsureIndexes creates the unique index on catalog names.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create catalog index: %w", err)
	}
	return nil
}

// List implements catalog.Store. Object arrays are counted server-side.
func (s *Store) List(ctx context.Context) ([]catalog.Info, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "name", Value: 1},
			{Key: "description", Value: 1},
			{Key: "objects", Value: bson.D{{Key: "$size", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$objects", bson.A{}}}}}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "name", Value: 1}}}},
	}
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("list catalogs: %w", err)
	}
	var out []catalog.Info
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("list catalogs: %w", err)
	}
	return out, nil
}

// Get implements catalog.Store. Stored objects are normalized like file
// catalogs.
func (s *Store) Get(ctx context.Context, name string) (*catalog.Catalog, error) {
	if err := errors.ValidateCatalogName(name); err != nil {
		return nil, err
	}
	var c catalog.Catalog
	err := s.coll.FindOne(ctx, bson.D{{Key: "name", Value: name}}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, catalog.NotFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("get catalog %s: %w", name, err)
	}
	if err := c.Normalize(); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", name, err)
	}
	return &c, nil
}

// Put inserts or replaces the catalog with c's name.
func (s *Store) Put(ctx context.Context, c *catalog.Catalog) error {
	if err := errors.ValidateCatalogName(c.Name); err != nil {
		return err
	}
	if err := c.Normalize(); err != nil {
		return err
	}
	_, err := s.coll.ReplaceOne(ctx,
		bson.D{{Key: "name", Value: c.Name}},
		c,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("put catalog %s: %w", c.Name, err)
	}
	return nil
}

// Delete removes the named catalog.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return fmt.Errorf("delete catalog %s: %w", name, err)
	}
	if res.DeletedCount == 0 {
		return catalog.NotFound(name)
	}
	return nil
}

// Close disconnects the client opened by Connect.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

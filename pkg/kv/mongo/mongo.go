// Package mongo provides a MongoDB-backed key-value store.
//
// Each entry is one document in a collection:
//
//	{ _id: <key>, value: <binary>, updated_at: <date> }
//
// When a TTL is configured, NewStore creates a TTL index on updated_at so
// MongoDB expires entries in the background.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/npmreg/pkg/kv"
)

// Default names used when Config leaves them empty.
const (
	DefaultDatabase   = "npmreg"
	DefaultCollection = "responses"
)

// Config configures a MongoDB store.
type Config struct {
	// URI is the MongoDB connection string.
	URI string `toml:"uri"`

	// Database and Collection name the collection holding entries.
	Database   string `toml:"database"`
	Collection string `toml:"collection"`

	// TTL enables a TTL index on updated_at, rounded up to whole seconds.
	// Zero disables expiry. A changed TTL updates the existing index.
	TTL time.Duration `toml:"ttl"`
}

type document struct {
	Key       string    `bson:"_id"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Store is a kv.Store backed by a MongoDB collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
}

// NewStore connects to MongoDB, verifies the connection and prepares the
// TTL index if requested.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s, err := NewStoreFromClient(ctx, client, cfg)
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewStoreFromClient wraps an existing client. The caller keeps ownership of
// the client; Close does not disconnect it.
func NewStoreFromClient(ctx context.Context, client *mongo.Client, cfg Config) (*Store, error) {
	db := cfg.Database
	if db == "" {
		db = DefaultDatabase
	}
	name := cfg.Collection
	if name == "" {
		name = DefaultCollection
	}
	coll := client.Database(db).Collection(name)

	if cfg.TTL > 0 {
		if err := ensureTTLIndex(ctx, coll, ttlSeconds(cfg.TTL)); err != nil {
			return nil, fmt.Errorf("mongo ttl index: %w", err)
		}
	}
	return &Store{client: client, coll: coll}, nil
}

// indexOptionsConflict is the server code for an index that exists with the
// same keys but different options.
const indexOptionsConflict = 85

var ttlKeys = bson.D{{Key: "updated_at", Value: 1}}

// ensureTTLIndex creates the TTL index on updated_at. When the index already
// exists with another expiry, it is updated in place with collMod.
func ensureTTLIndex(ctx context.Context, coll *mongo.Collection, seconds int32) error {
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    ttlKeys,
		Options: options.Index().SetExpireAfterSeconds(seconds),
	})
	if !isIndexOptionsConflict(err) {
		return err
	}
	return coll.Database().RunCommand(ctx, bson.D{
		{Key: "collMod", Value: coll.Name()},
		{Key: "index", Value: bson.D{
			{Key: "keyPattern", Value: ttlKeys},
			{Key: "expireAfterSeconds", Value: seconds},
		}},
	}).Err()
}

func isIndexOptionsConflict(err error) bool {
	var cmdErr mongo.CommandError
	return errors.As(err, &cmdErr) && cmdErr.Code == indexOptionsConflict
}

// ttlSeconds rounds d up to whole seconds. MongoDB expires documents with an
// expireAfterSeconds of 0 immediately, so the result is at least 1.
func ttlSeconds(d time.Duration) int32 {
	secs := (d + time.Second - 1) / time.Second
	switch {
	case secs < 1:
		return 1
	case secs > math.MaxInt32:
		return math.MaxInt32
	}
	return int32(secs)
}

// Get retrieves the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: key}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return doc.Value, true, nil
}

// Set upserts value under key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	doc := document{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := s.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: key}},
		doc,
		options.Replace().SetUpsert(true),
	)
	return err
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: key}})
	return err
}

// Clear removes every document in the collection.
func (s *Store) Clear(ctx context.Context) (int, error) {
	res, err := s.coll.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}

// Close disconnects the client if the store created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var (
	_ kv.Store   = (*Store)(nil)
	_ kv.Deleter = (*Store)(nil)
	_ kv.Clearer = (*Store)(nil)
)

// Package mongostore is a MongoDB-backed store.Store. Each key is one
// document {_id: key, value, updated_at}.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Defaults used when the config leaves them blank.
const (
	DefaultDatabase   = "econcore"
	DefaultCollection = "econ_kv"
)

type document struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Store is a key-value collection.
type Store struct {
	client *mongo.Client
	col    *mongo.Collection
}

// Open connects to uri and pings the primary.
func Open(ctx context.Context, uri, database, collection string) (*Store, error) {
	if database == "" {
		database = DefaultDatabase
	}
	if collection == "" {
		collection = DefaultCollection
	}
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongostore: ping: %w", err)
	}
	return &Store{client: client, col: client.Database(database).Collection(collection)}, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var doc document
	err := s.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if isNoDocuments(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("mongostore: get %s: %w", key, err)
	}
	return doc.Value, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value *string) error {
	if value == nil {
		if _, err := s.col.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
			return fmt.Errorf("mongostore: delete %s: %w", key, err)
		}
		return nil
	}
	doc := document{Key: key, Value: *value, UpdatedAt: time.Now().UTC()}
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongostore: set %s: %w", key, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.col.Find(ctx, prefixFilter(prefix), opts)
	if err != nil {
		return nil, fmt.Errorf("mongostore: list: %w", err)
	}
	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongostore: list decode: %w", err)
	}
	keys := make([]string, len(docs))
	for i, d := range docs {
		keys[i] = d.Key
	}
	return keys, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func prefixFilter(prefix string) bson.M {
	if prefix == "" {
		return bson.M{}
	}
	return bson.M{"_id": bson.Regex{Pattern: "^" + regexp.QuoteMeta(prefix)}}
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// Package mongo stores boards as MongoDB documents.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/gridwalk/pkg/session"
)

// Defaults for the database and collection names.
const (
	DefaultDatabase   = "gridwalk"
	DefaultCollection = "boards"
)

// Store implements session.Store on a MongoDB collection. A TTL index on
// expires_at lets the server drop old boards; reads also filter them out
// since TTL deletion runs only once a minute.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
}

// Connect dials uri and returns a Store on database.collection, creating
// the TTL index if needed. Empty names use the defaults.
func Connect(ctx context.Context, uri, database, collection string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	s := NewFromClient(client, database, collection)
	s.owned = true
	if err := s.EnsureIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// NewFromClient creates a Store on an existing client. The client is not
// disconnected by Close.
func NewFromClient(client *mongo.Client, database, collection string) *Store {
	if database == "" {
		database = DefaultDatabase
	}
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}
}

// EnsureIndexes creates the expiry index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("create expiry index: %w", err)
	}
	return nil
}

// Name returns "mongo".
func (s *Store) Name() string { return "mongo" }

func (s *Store) Get(ctx context.Context, id string) (*session.Board, error) {
	var b session.Board
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&b)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("find board: %w", err)
	}
	if b.IsExpired() {
		return nil, session.ErrNotFound
	}
	return &b, nil
}

func (s *Store) Put(ctx context.Context, b *session.Board) error {
	_, err := s.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: b.ID}},
		b,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save board: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}}); err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	return nil
}

// List returns the IDs of unexpired boards in ID order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "expires_at", Value: bson.D{{Key: "$exists", Value: false}}}},
		bson.D{{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: time.Now()}}}},
	}}}
	opts := options.Find().
		SetProjection(bson.D{{Key: "_id", Value: 1}}).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode board id: %w", err)
		}
		ids = append(ids, doc.ID)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	return ids, nil
}

// Close disconnects the client if the Store created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ session.Store = (*Store)(nil)

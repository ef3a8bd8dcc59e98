// Package redis stores boards and run locks in Redis, so several server
// instances can share boards and agree on which one is solving.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/matzehuels/gridwalk/pkg/session"
)

// DefaultPrefix namespaces every key this package writes.
const DefaultPrefix = "gridwalk:"

// farFuture is the index score for boards without an expiry (2100-01-01).
const farFuture = 4102444800

// Store implements session.Store using Redis.
//
// Each board is a JSON string under <prefix>board:<id>, expiring with the
// board. A sorted set <prefix>boards indexes IDs by expiry so List can
// prune lazily.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the expiry for boards that carry none of their own.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a Store with its own client.
func New(address, password string, db int, opts ...Option) *Store {
	return NewFromClient(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewFromClient creates a Store on an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Client returns the underlying client, for sharing with a Locker.
func (s *Store) Client() *backend.Client { return s.client }

// Name returns "redis".
func (s *Store) Name() string { return "redis" }

func (s *Store) key(id string) string {
	return s.prefix + "board:" + id
}

func (s *Store) indexKey() string {
	return s.prefix + "boards"
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Get(ctx context.Context, id string) (*session.Board, error) {
	val, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("get board from redis: %w", err)
	}

	var b session.Board
	if err := json.Unmarshal(val, &b); err != nil {
		return nil, fmt.Errorf("unmarshal board: %w", err)
	}
	if b.IsExpired() {
		return nil, session.ErrNotFound
	}
	return &b, nil
}

func (s *Store) Put(ctx context.Context, b *session.Board) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal board: %w", err)
	}

	ttl := s.ttl
	if !b.ExpiresAt.IsZero() {
		ttl = time.Until(b.ExpiresAt)
		if ttl <= 0 {
			return s.Delete(ctx, b.ID)
		}
	}
	score := float64(farFuture)
	if ttl > 0 {
		score = float64(time.Now().Add(ttl).Unix())
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(b.ID), data, ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: b.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save board to redis: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete board from redis: %w", err)
	}
	return nil
}

// List returns live board IDs, pruning expired index entries first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := fmt.Sprintf("%d", time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", "("+now).Err(); err != nil {
		return nil, fmt.Errorf("prune expired boards: %w", err)
	}
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	return ids, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

var _ session.Store = (*Store)(nil)

// Package cache keeps idempotency records for client-retried POST requests in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"traiteur_devis/internal/infrastructure/config"
)

const (
	keyPrefix     = "idem:"
	pendingMarker = "pending"
)

// ErrInFlight is returned by Load while the first request for a key has not
// completed yet.
var ErrInFlight = errors.New("idempotent request still in flight")

// Record is the response replayed for a repeated idempotency key.
type Record struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// redisClient is the subset of redis.Cmdable the store uses.
type redisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type IdempotencyStore struct {
	rdb redisClient
	ttl time.Duration
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password})
}

func NewIdempotencyStore(rdb redisClient, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

func (s *IdempotencyStore) Key(scope, key string) string {
	return fmt.Sprintf("%s%s:%s", keyPrefix, scope, key)
}

// Reserve claims key. It returns false when the key was already claimed.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string) (bool, error) {
	return s.rdb.SetNX(ctx, key, pendingMarker, s.ttl).Result()
}

// Load returns the stored response for key. ok is false when nothing is stored.
func (s *IdempotencyStore) Load(ctx context.Context, key string) (Record, bool, error) {
	raw, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	if raw == pendingMarker {
		return Record{}, false, ErrInFlight
	}
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return Record{}, false, fmt.Errorf("decode idempotency record: %w", err)
	}
	return rec, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, key string, rec Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, b, s.ttl).Err()
}

// Release drops a reservation so the request can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

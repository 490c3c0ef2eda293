package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/amarchal/majordome/internal/domain"
)

// RedisCacheStore implements CacheStore on Redis, for deployments where the
// bot and the scheduled jobs run as separate processes. Redis handles expiry
// natively; CleanupExpired is a no-op kept for interface parity.
type RedisCacheStore struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisCacheStore creates a RedisCacheStore from an address like
// "localhost:6379".
func NewRedisCacheStore(addr string) *RedisCacheStore {
	return &RedisCacheStore{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
		now: time.Now,
	}
}

// redisEnvelope is the stored representation of a cache entry. Redis owns
// the TTL but the metadata travels with the payload.
type redisEnvelope struct {
	Kind      domain.CacheKind `json:"kind"`
	Payload   json.RawMessage  `json:"payload"`
	TaskID    *int64           `json:"task_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

func (s *RedisCacheStore) Get(ctx context.Context, key string) (*domain.CacheEntry, error) {
	raw, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("cache key %q: %w", key, ErrCacheMiss)
		}
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}

	var env redisEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("decoding cache entry: %w", err)
	}
	// Redis expiry has second granularity; enforce the exact deadline too.
	if !s.now().Before(env.ExpiresAt) {
		return nil, fmt.Errorf("cache key %q: %w", key, ErrCacheMiss)
	}
	return &domain.CacheEntry{
		Key:       key,
		Kind:      env.Kind,
		Payload:   env.Payload,
		TaskID:    env.TaskID,
		CreatedAt: env.CreatedAt,
		ExpiresAt: env.ExpiresAt,
	}, nil
}

func (s *RedisCacheStore) Set(ctx context.Context, key string, kind domain.CacheKind, payload []byte, ttl time.Duration, taskID *int64) error {
	now := s.now().UTC()
	env := redisEnvelope{
		Kind:      kind,
		Payload:   payload,
		TaskID:    taskID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	if err := s.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

func (s *RedisCacheStore) Append(ctx context.Context, key string, kind domain.CacheKind, event []byte, ttl time.Duration, maxItems int) error {
	doc := `{"events":[]}`
	entry, err := s.Get(ctx, key)
	if err == nil {
		doc = string(entry.Payload)
	}

	doc, err = sjson.SetRaw(doc, "events.-1", string(event))
	if err != nil {
		return fmt.Errorf("appending cache event: %w", err)
	}
	if maxItems > 0 {
		for int(gjson.Get(doc, "events.#").Int()) > maxItems {
			doc, err = sjson.Delete(doc, "events.0")
			if err != nil {
				return fmt.Errorf("trimming cache events: %w", err)
			}
		}
	}
	return s.Set(ctx, key, kind, []byte(doc), ttl, nil)
}

func (s *RedisCacheStore) Invalidate(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("invalidating cache key: %w", err)
	}
	return nil
}

func (s *RedisCacheStore) InvalidatePrefix(ctx context.Context, prefix string) error {
	iter := s.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("invalidating cache prefix: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scanning cache prefix: %w", err)
	}
	return nil
}

// CleanupExpired is a no-op: Redis evicts expired keys itself.
func (s *RedisCacheStore) CleanupExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

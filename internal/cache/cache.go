// Package cache wraps Redis as a graceful-degradation cache layer: the
// settings cache (settings:tenant:<id>) and the availability cache
// (availability:resource:<id>:<date>) described in the spec's design notes.
// Modeled on the teacher's persistence error-mapping discipline (distinct
// sentinel per failure mode) but built fresh, since the teacher repo has no
// cache layer of its own; redis/go-redis/v9 is the client used elsewhere in
// the retrieval pack for exactly this kind of TTL keyspace.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent. It is also what Get
// returns when the Redis connection itself fails, because a cache-layer
// outage must degrade to "treat as a miss", never propagate as a hard
// error to the caller (per the spec's cache design notes) — the one
// exception, booking admission's settings lookup, is handled by
// SettingsSupplier, not by this type.
var ErrMiss = errors.New("cache: miss")

// redisClient is the subset of *redis.Client TTLStore needs, narrowed so
// tests can substitute a fake without a live Redis server.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// TTLStore is a thin Get/Set/Del wrapper over a Redis client.
type TTLStore struct {
	client redisClient
	logger *slog.Logger
}

// NewTTLStore constructs a TTLStore over an already-configured redis.Client
// (or, in tests, any value satisfying the narrower redisClient interface).
func NewTTLStore(client redisClient, logger *slog.Logger) *TTLStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TTLStore{client: client, logger: logger}
}

// Get returns the raw bytes stored at key, or ErrMiss if the key is absent
// or the cache is unreachable.
func (s *TTLStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.WarnContext(ctx, "cache get failed, treating as miss", "key", key, "error", err)
		}
		return nil, ErrMiss
	}
	return value, nil
}

// Set stores value at key with the given TTL. Failures are logged and
// swallowed: a cache write failure must not fail the caller's request.
func (s *TTLStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		s.logger.WarnContext(ctx, "cache set failed", "key", key, "error", err)
	}
}

// Del removes key, logging and swallowing any error for the same reason as
// Set.
func (s *TTLStore) Del(ctx context.Context, key string) {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.logger.WarnContext(ctx, "cache del failed", "key", key, "error", err)
	}
}

// SettingsKey builds the settings:tenant:<id> cache key.
func SettingsKey(tenantID string) string {
	return "settings:tenant:" + tenantID
}

// AvailabilityKey builds the availability:resource:<id>:<date> cache key.
func AvailabilityKey(resourceID, date string) string {
	return "availability:resource:" + resourceID + ":" + date
}

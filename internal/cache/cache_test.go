package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeRedis is an in-memory double for redisClient, letting these tests
// exercise TTLStore without a live Redis server.
type fakeRedis struct {
	values    map[string][]byte
	failGet   bool
	failSet   bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: make(map[string][]byte)}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if f.failGet {
		cmd.SetErr(errors.New("connection refused"))
		return cmd
	}
	value, ok := f.values[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(string(value))
	return cmd
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if f.failSet {
		cmd.SetErr(errors.New("connection refused"))
		return cmd
	}
	switch v := value.(type) {
	case []byte:
		f.values[key] = v
	case string:
		f.values[key] = []byte(v)
	}
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	var n int64
	for _, key := range keys {
		if _, ok := f.values[key]; ok {
			delete(f.values, key)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func TestTTLStore_SetThenGetRoundTrips(t *testing.T) {
	fake := newFakeRedis()
	store := NewTTLStore(fake, nil)
	ctx := context.Background()

	store.Set(ctx, "k", []byte("v"), time.Minute)

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v" {
		t.Fatalf("expected %q, got %q", "v", got)
	}
}

func TestTTLStore_GetMissingKeyReturnsErrMiss(t *testing.T) {
	fake := newFakeRedis()
	store := NewTTLStore(fake, nil)

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
}

func TestTTLStore_GetDegradesToMissOnConnectionFailure(t *testing.T) {
	fake := newFakeRedis()
	fake.failGet = true
	store := NewTTLStore(fake, nil)

	_, err := store.Get(context.Background(), "k")
	if !errors.Is(err, ErrMiss) {
		t.Fatalf("expected a connection failure to degrade to ErrMiss, got %v", err)
	}
}

func TestTTLStore_DelRemovesKey(t *testing.T) {
	fake := newFakeRedis()
	store := NewTTLStore(fake, nil)
	ctx := context.Background()

	store.Set(ctx, "k", []byte("v"), time.Minute)
	store.Del(ctx, "k")

	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected key to be gone after Del")
	}
}

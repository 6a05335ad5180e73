package resource

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/example/scheduling-platform/internal/cache"
)

// TTLAvailabilityCache implements AvailabilityCache over cache.TTLStore,
// JSON-encoding the slot list under the availability:resource:<id>:<date>
// key spec.md §4.6 names.
type TTLAvailabilityCache struct {
	store  *cache.TTLStore
	ttl    time.Duration
	logger *slog.Logger
}

// NewTTLAvailabilityCache constructs a TTLAvailabilityCache.
func NewTTLAvailabilityCache(store *cache.TTLStore, ttl time.Duration, logger *slog.Logger) *TTLAvailabilityCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &TTLAvailabilityCache{store: store, ttl: ttl, logger: logger}
}

// GetSlots returns the cached slot list, if present.
func (c *TTLAvailabilityCache) GetSlots(ctx context.Context, resourceID, date string) ([]Slot, bool) {
	raw, err := c.store.Get(ctx, cache.AvailabilityKey(resourceID, date))
	if errors.Is(err, cache.ErrMiss) {
		return nil, false
	}
	if err != nil {
		return nil, false
	}
	var slots []Slot
	if err := json.Unmarshal(raw, &slots); err != nil {
		c.logger.WarnContext(ctx, "availability cache payload is corrupt, treating as miss", "error", err)
		return nil, false
	}
	return slots, true
}

// SetSlots stores slots under the cache key with the configured TTL.
func (c *TTLAvailabilityCache) SetSlots(ctx context.Context, resourceID, date string, slots []Slot) {
	raw, err := json.Marshal(slots)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to encode slots for caching", "error", err)
		return
	}
	c.store.Set(ctx, cache.AvailabilityKey(resourceID, date), raw, c.ttl)
}

// Invalidate removes the cached projection for one resource/date.
func (c *TTLAvailabilityCache) Invalidate(ctx context.Context, resourceID, date string) {
	c.store.Del(ctx, cache.AvailabilityKey(resourceID, date))
}

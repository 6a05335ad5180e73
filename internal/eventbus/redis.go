package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// payloadField is the single field name under which the JSON-encoded Event
// is stored in each stream entry. Redis Streams entries are themselves
// field/value maps; a single "event" field keeps the wire shape simple and
// lets every consumer decode the same way regardless of event type.
const payloadField = "event"

// RedisBus implements Bus over Redis Streams: XADD for publish,
// XREADGROUP/XACK for consumption, XPENDING/XCLAIM for startup reclaim.
type RedisBus struct {
	client        *redis.Client
	logger        *slog.Logger
	blockTimeout  time.Duration
	claimMinIdle  time.Duration
	batchSize     int64
}

// NewRedisBus constructs a RedisBus with the spec's defaults: block up to
// 5s per read, reclaim messages idle for more than 30s.
func NewRedisBus(client *redis.Client, logger *slog.Logger) *RedisBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBus{
		client:       client,
		logger:       logger,
		blockTimeout: 5 * time.Second,
		claimMinIdle: 30 * time.Second,
		batchSize:    10,
	}
}

// Publish appends event onto stream via XADD. Redis Streams auto-creates
// the stream on first XADD, so no explicit provisioning step is needed. A
// failed publication is logged here and also returned to the caller.
func (b *RedisBus) Publish(ctx context.Context, stream Stream, event Event) error {
	encoded, err := json.Marshal(event)
	if err == nil {
		err = b.client.XAdd(ctx, &redis.XAddArgs{
			Stream: string(stream),
			Values: map[string]any{payloadField: string(encoded)},
		}).Err()
	}
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to publish event", "stream", stream, "event_id", event.ID, "event_type", event.Type, "error", err)
	}
	return err
}

// Subscribe ensures the consumer group exists, reclaims messages left
// pending under the same group (see reclaimPending), then reads new
// messages until ctx is cancelled.
func (b *RedisBus) Subscribe(ctx context.Context, stream Stream, group, consumer string, handler Handler) error {
	if err := b.ensureGroup(ctx, stream, group); err != nil {
		return err
	}

	if err := b.reclaimPending(ctx, stream, group, consumer, handler); err != nil {
		b.logger.ErrorContext(ctx, "failed to reclaim pending messages", "stream", stream, "group", group, "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumer,
			Streams:  []string{string(stream), ">"},
			Count:    b.batchSize,
			Block:    b.blockTimeout,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			b.logger.ErrorContext(ctx, "XREADGROUP failed", "stream", stream, "group", group, "error", err)
			continue
		}

		for _, s := range result {
			for _, message := range s.Messages {
				b.handleMessage(ctx, stream, group, message, handler)
			}
		}
	}
}

func (b *RedisBus) ensureGroup(ctx context.Context, stream Stream, group string) error {
	err := b.client.XGroupCreateMkStream(ctx, string(stream), group, "0").Err()
	if err != nil && !isBusyGroupErr(err) {
		return err
	}
	return nil
}

func isBusyGroupErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "BUSYGROUP")
}

// reclaimPending looks at the first 100 entries of the group's pending list,
// claims those left pending for longer than claimMinIdle and runs handler on
// each, so a consumer that crashed mid-processing does not lose the message
// it never acked.
func (b *RedisBus) reclaimPending(ctx context.Context, stream Stream, group, consumer string, handler Handler) error {
	pending, err := b.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: string(stream),
		Group:  group,
		Start:  "-",
		End:    "+",
		Count:  100,
	}).Result()
	if err != nil {
		if isNoGroupErr(err) {
			return nil
		}
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	ids := make([]string, 0, len(pending))
	for _, p := range pending {
		if p.Idle >= b.claimMinIdle {
			ids = append(ids, p.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	claimed, err := b.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   string(stream),
		Group:    group,
		Consumer: consumer,
		MinIdle:  b.claimMinIdle,
		Messages: ids,
	}).Result()
	if err != nil {
		return err
	}

	for _, message := range claimed {
		b.handleMessage(ctx, stream, group, message, handler)
	}
	return nil
}

func isNoGroupErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "NOGROUP")
}

func (b *RedisBus) handleMessage(ctx context.Context, stream Stream, group string, message redis.XMessage, handler Handler) {
	raw, ok := message.Values[payloadField].(string)
	if !ok {
		b.logger.ErrorContext(ctx, "stream message missing payload field", "stream", stream, "id", message.ID)
		return
	}

	var event Event
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		b.logger.ErrorContext(ctx, "failed to decode event payload", "stream", stream, "id", message.ID, "error", err)
		return
	}

	if err := handler(ctx, event); err != nil {
		b.logger.ErrorContext(ctx, "event handler failed, message left pending for retry", "stream", stream, "event_id", event.ID, "error", err)
		return
	}

	if err := b.client.XAck(ctx, string(stream), group, message.ID).Err(); err != nil {
		b.logger.ErrorContext(ctx, "failed to ack message", "stream", stream, "id", message.ID, "error", err)
	}
}

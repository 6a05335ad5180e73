// Package eventbus implements the two-stream event fabric described in the
// spec: booking-events and deletion-events, each with at-least-once
// delivery through consumer groups, idempotent handler contracts, and
// reclaim of pending-but-unacked messages on consumer startup. Mapped onto
// Redis Streams (XADD/XREADGROUP/XACK/XPENDING/XCLAIM) via
// redis/go-redis/v9, the client the NikhilBhutani-Go_AI_Backend example in
// the retrieval pack already depends on for this exact primitive; the
// teacher repo has no message bus of its own, so this package is written
// fresh in the teacher's error-handling and logging idiom rather than
// adapted from an existing file.
package eventbus

import (
	"encoding/json"
	"time"
)

// Stream names the two logical streams spec.md §4 (event fabric) defines.
type Stream string

const (
	StreamBookingEvents   Stream = "booking-events"
	StreamDeletionEvents  Stream = "deletion-events"
)

// EventType enumerates the domain events published onto the streams above.
type EventType string

const (
	EventBookingCreated   EventType = "booking.created"
	EventBookingCancelled EventType = "booking.cancelled"
	EventBookingUpdated   EventType = "booking.updated"
	EventTenantDeleted    EventType = "tenant.deleted"
	EventUserDeleted      EventType = "user.deleted"
	EventResourceDeleted  EventType = "resource.deleted"
)

// Event is the envelope carried on every stream. ID is a fresh identifier
// the producer assigns to each event (not the stream message ID Redis
// assigns); consumers do not de-duplicate on it, so a redelivered message
// reaches its handler again.
type Event struct {
	ID         string          `json:"id"`
	Type       EventType       `json:"type"`
	TenantID   string          `json:"tenant_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEvent builds an Event, encoding typed payload data into its Payload
// field.
func NewEvent(id string, eventType EventType, tenantID string, occurredAt time.Time, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{ID: id, Type: eventType, TenantID: tenantID, OccurredAt: occurredAt, Payload: raw}, nil
}

// DecodePayload unmarshals an Event's Payload into dst.
func (e Event) DecodePayload(dst any) error {
	return json.Unmarshal(e.Payload, dst)
}

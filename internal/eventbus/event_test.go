package eventbus

import (
	"testing"
	"time"
)

func TestNewEvent_RoundTripsPayload(t *testing.T) {
	type payload struct {
		BookingID string `json:"booking_id"`
	}

	event, err := NewEvent("evt-1", EventBookingCreated, "tenant-1", time.Now(), payload{BookingID: "b1"})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}

	var decoded payload
	if err := event.DecodePayload(&decoded); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if decoded.BookingID != "b1" {
		t.Fatalf("unexpected booking id: %q", decoded.BookingID)
	}
}

package tenant

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/scheduling-platform/internal/eventbus"
)

func TestWebhookDispatcher_DeliversSignedPayloadToMatchingWebhooks(t *testing.T) {
	var receivedBody []byte
	var receivedSignature string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedBody, _ = io.ReadAll(r.Body)
		receivedSignature = r.Header.Get("X-Webhook-Signature")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	repo := newTestRepo(t)
	ctx := context.Background()
	if err := repo.Create(ctx, sampleTenant("t1", "acme.example.com")); err != nil {
		t.Fatalf("Create tenant: %v", err)
	}
	if err := repo.CreateWebhook(ctx, Webhook{
		ID: "w1", TenantID: "t1", URL: server.URL, Secret: "s3cr3t", IsActive: true,
		Events: []EventKind{EventKind(eventbus.EventBookingCreated)},
	}); err != nil {
		t.Fatalf("CreateWebhook: %v", err)
	}

	dispatcher := NewWebhookDispatcher(repo, nil)
	event, err := eventbus.NewEvent("evt-1", eventbus.EventBookingCreated, "t1", time.Now(), map[string]string{"booking_id": "b1"})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}

	if err := dispatcher.Handle(ctx, event); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if receivedBody == nil {
		t.Fatalf("expected webhook endpoint to receive a request")
	}
	var body webhookBody
	if err := json.Unmarshal(receivedBody, &body); err != nil {
		t.Fatalf("unmarshal delivered body: %v", err)
	}
	if body.Event != string(eventbus.EventBookingCreated) {
		t.Fatalf("unexpected event field: %q", body.Event)
	}

	mac := hmac.New(sha256.New, []byte("s3cr3t"))
	mac.Write(receivedBody)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	if receivedSignature != expected {
		t.Fatalf("unexpected signature: got %q want %q", receivedSignature, expected)
	}
}

func TestWebhookDispatcher_SkipsWebhooksNotSubscribedToEvent(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	repo := newTestRepo(t)
	ctx := context.Background()
	if err := repo.Create(ctx, sampleTenant("t1", "acme.example.com")); err != nil {
		t.Fatalf("Create tenant: %v", err)
	}
	if err := repo.CreateWebhook(ctx, Webhook{
		ID: "w1", TenantID: "t1", URL: server.URL, IsActive: true,
		Events: []EventKind{EventKind(eventbus.EventBookingCancelled)},
	}); err != nil {
		t.Fatalf("CreateWebhook: %v", err)
	}

	dispatcher := NewWebhookDispatcher(repo, nil)
	event, err := eventbus.NewEvent("evt-1", eventbus.EventBookingCreated, "t1", time.Now(), map[string]string{})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	if err := dispatcher.Handle(ctx, event); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if called {
		t.Fatalf("expected webhook not subscribed to booking.created to be skipped")
	}
}

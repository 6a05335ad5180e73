package httpkit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/scheduling-platform/internal/apperr"
)

func TestResponder_HandleServiceError_MapsNotFound(t *testing.T) {
	r := NewResponder(nil)
	w := httptest.NewRecorder()

	r.HandleServiceError(context.Background(), w, apperr.NotFound("resource"))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var body errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body.Message == "" {
		t.Fatalf("expected a message in the response body")
	}
}

func TestResponder_HandleServiceError_MapsValidationWithFieldErrors(t *testing.T) {
	r := NewResponder(nil)
	w := httptest.NewRecorder()

	vErr := apperr.NewValidation("invalid input")
	vErr.Add("name", "must not be empty")

	r.HandleServiceError(context.Background(), w, vErr)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	var body errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body.Errors["name"] != "must not be empty" {
		t.Fatalf("expected field error for name, got %v", body.Errors)
	}
}

func TestResponder_HandleServiceError_HidesInternalDetails(t *testing.T) {
	r := NewResponder(nil)
	w := httptest.NewRecorder()

	r.HandleServiceError(context.Background(), w, apperr.Wrap(apperr.KindInternal, "boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var body errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body.Message != "an internal error occurred" {
		t.Fatalf("expected internal errors to be hidden from the client, got %q", body.Message)
	}
}

// Package httpkit provides the HTTP transport plumbing shared by every
// service's handlers: JSON responses, apperr-to-status translation, and the
// request-scoped logging and bearer-auth middleware. Adapted from the
// teacher's internal/http/{responder.go,middleware.go,context.go}, ported
// from its hand-rolled http.ServeMux conventions onto go-chi/chi/v5 and
// generalized from a single scheduler's error set to the shared apperr
// taxonomy every service now returns.
package httpkit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/scheduling-platform/internal/apperr"
	"github.com/example/scheduling-platform/internal/logging"
)

// errorResponse is the JSON body written for any non-2xx response.
type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// Responder writes JSON responses and maps domain errors to HTTP status
// codes. Every service's handlers embed one.
type Responder struct {
	logger *slog.Logger
}

// NewResponder constructs a Responder, falling back to slog.Default when
// logger is nil.
func NewResponder(logger *slog.Logger) Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return Responder{logger: logger}
}

// WriteJSON writes payload as the response body with the given status. A
// nil payload or http.StatusNoContent writes only the status line.
func (r Responder) WriteJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// WriteError writes a plain error response at the given status.
func (r Responder) WriteError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := defaultStatusMessage(status)
	if err != nil {
		message = err.Error()
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}
	r.WriteJSON(ctx, w, status, errorResponse{Message: message})
}

// HandleServiceError classifies err via apperr.KindOf and writes the
// matching status and body, including per-field detail for validation
// failures.
func (r Responder) HandleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.WriteError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var vErr *apperr.ValidationError
	if errors.As(err, &vErr) {
		r.WriteJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: string(apperr.KindValidation),
			Message:   vErr.Message,
			Errors:    vErr.FieldErrors,
		})
		return
	}

	kind := apperr.KindOf(err)
	status := kind.HTTPStatus()
	if status >= http.StatusInternalServerError {
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "error", err)
		r.WriteJSON(ctx, w, status, errorResponse{ErrorCode: string(apperr.KindInternal), Message: "an internal error occurred"})
		return
	}

	r.WriteJSON(ctx, w, status, errorResponse{ErrorCode: string(kind), Message: err.Error()})
}

func (r Responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func defaultStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "the request could not be understood"
	case http.StatusUnauthorized:
		return "authentication is required"
	case http.StatusForbidden:
		return "you do not have permission to perform this action"
	case http.StatusNotFound:
		return "the requested resource was not found"
	case http.StatusConflict:
		return "the request conflicts with the current state of the resource"
	case http.StatusUnprocessableEntity:
		return "the request contains invalid input"
	case http.StatusServiceUnavailable:
		return "a required dependency is unavailable"
	default:
		return "an internal error occurred"
	}
}

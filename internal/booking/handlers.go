package booking

import (
	"errors"
	"net/http"
	"time"

	"github.com/example/scheduling-platform/internal/apperr"
	"github.com/example/scheduling-platform/internal/httpkit"
	"github.com/go-chi/chi/v5"
)

// Handlers wires Service onto chi routes, following
// internal/resource/handlers.go's route-grouping style.
type Handlers struct {
	service           *Service
	responder         httpkit.Responder
	cancellationHours func(tenantID string) int
}

// NewHandlers constructs Handlers. cancellationHours resolves the tenant's
// current cancellation policy for the can_cancel field on list responses;
// pass the tenant settings supplier's cached value lookup.
func NewHandlers(service *Service, responder httpkit.Responder, cancellationHours func(tenantID string) int) *Handlers {
	return &Handlers{service: service, responder: responder, cancellationHours: cancellationHours}
}

// Mount registers every booking-service route onto r. Every route requires
// a bearer token; create/update additionally require can_book, and DELETE
// requires the admin role.
func (h *Handlers) Mount(r chi.Router, requireAuth, requireAdmin, requireCanBook func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/bookings/", h.list)
		r.Get("/bookings/{id}", h.get)
		r.Patch("/bookings/{id}/cancel", h.cancel)

		r.Group(func(r chi.Router) {
			r.Use(requireCanBook)
			r.Post("/bookings/", h.create)
			r.Put("/bookings/{id}", h.update)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Delete("/bookings/{id}", h.delete)
		})
	})
}

type recurringPatternRequest struct {
	Frequency  string  `json:"frequency"`
	Interval   int     `json:"interval"`
	EndDate    *string `json:"end_date"`
	DaysOfWeek []int   `json:"days_of_week"`
}

func (req *recurringPatternRequest) toDomain() (*RecurringPattern, error) {
	if req == nil {
		return nil, nil
	}
	pattern := &RecurringPattern{Frequency: Frequency(req.Frequency), Interval: req.Interval}
	if req.EndDate != nil && *req.EndDate != "" {
		end, err := time.Parse(time.RFC3339, *req.EndDate)
		if err != nil {
			return nil, apperr.NewValidation("recurring_pattern.end_date must be RFC3339")
		}
		pattern.EndDate = &end
	}
	for _, d := range req.DaysOfWeek {
		pattern.DaysOfWeek = append(pattern.DaysOfWeek, time.Weekday(d))
	}
	return pattern, nil
}

type bookingRequest struct {
	TenantID         string                   `json:"tenant_id"`
	ResourceID       string                   `json:"resource_id"`
	UserID           string                   `json:"user_id"`
	ClientID         string                   `json:"client_id"`
	StartTime        string                   `json:"start_time"`
	EndTime          string                   `json:"end_time"`
	Notes            string                   `json:"notes"`
	Status           string                   `json:"status"`
	RecurringEnabled bool                     `json:"recurring_enabled"`
	RecurringPattern *recurringPatternRequest `json:"recurring_pattern"`
}

type bookingResponse struct {
	ID                string                   `json:"id"`
	TenantID          string                   `json:"tenant_id"`
	ResourceID        string                   `json:"resource_id"`
	UserID            string                   `json:"user_id"`
	ClientID          string                   `json:"client_id"`
	StartTime         time.Time                `json:"start_time"`
	EndTime           time.Time                `json:"end_time"`
	Status            Status                   `json:"status"`
	Notes             string                   `json:"notes"`
	RecurringEnabled  bool                     `json:"recurring_enabled"`
	RecurringPattern  *recurringPatternRequest `json:"recurring_pattern,omitempty"`
	RecurrenceGroupID string                   `json:"recurrence_group_id,omitempty"`
	CreatedAt         time.Time                `json:"created_at"`
	UpdatedAt         time.Time                `json:"updated_at"`
	CanCancel         *bool                    `json:"can_cancel,omitempty"`
}

func toBookingResponse(b Booking) bookingResponse {
	resp := bookingResponse{
		ID: b.ID, TenantID: b.TenantID, ResourceID: b.ResourceID, UserID: b.UserID, ClientID: b.ClientID,
		StartTime: b.StartTime, EndTime: b.EndTime, Status: b.Status, Notes: b.Notes,
		RecurringEnabled: b.RecurringEnabled, RecurrenceGroupID: b.RecurrenceGroupID,
		CreatedAt: b.CreatedAt, UpdatedAt: b.UpdatedAt,
	}
	if b.RecurringPattern != nil {
		days := make([]int, 0, len(b.RecurringPattern.DaysOfWeek))
		for _, d := range b.RecurringPattern.DaysOfWeek {
			days = append(days, int(d))
		}
		resp.RecurringPattern = &recurringPatternRequest{
			Frequency: string(b.RecurringPattern.Frequency), Interval: b.RecurringPattern.Interval, DaysOfWeek: days,
		}
		if b.RecurringPattern.EndDate != nil {
			formatted := b.RecurringPattern.EndDate.Format(time.RFC3339)
			resp.RecurringPattern.EndDate = &formatted
		}
	}
	return resp
}

// conflictResponse is the 409 body shape for an admission conflict, per
// spec.md §6: {"success": false, "error": "conflict", "message": "...",
// "conflicts": [...]}.
type conflictResponse struct {
	Success   bool                 `json:"success"`
	Error     string               `json:"error"`
	Message   string               `json:"message"`
	Conflicts []ConflictingBooking `json:"conflicts"`
}

// writeCreateOrUpdateError special-cases a *ConflictError to populate the
// 409 body's conflicts array; every other error follows the shared
// apperr-to-status mapping.
func (h *Handlers) writeCreateOrUpdateError(w http.ResponseWriter, r *http.Request, err error) {
	var conflictErr *ConflictError
	if errors.As(err, &conflictErr) {
		h.responder.WriteJSON(r.Context(), w, http.StatusConflict, conflictResponse{
			Success: false, Error: "conflict", Message: err.Error(), Conflicts: conflictErr.Conflicts,
		})
		return
	}
	h.responder.HandleServiceError(r.Context(), w, err)
}

func (h *Handlers) create(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		h.responder.WriteError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		h.responder.WriteError(r.Context(), w, http.StatusUnprocessableEntity, apperr.NewValidation("start_time must be RFC3339"))
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		h.responder.WriteError(r.Context(), w, http.StatusUnprocessableEntity, apperr.NewValidation("end_time must be RFC3339"))
		return
	}
	pattern, err := req.RecurringPattern.toDomain()
	if err != nil {
		h.responder.WriteError(r.Context(), w, http.StatusUnprocessableEntity, err)
		return
	}

	created, err := h.service.Create(r.Context(), CreateInput{
		TenantID: req.TenantID, ResourceID: req.ResourceID, UserID: req.UserID, ClientID: req.ClientID,
		StartTime: start, EndTime: end, Notes: req.Notes,
		RecurringEnabled: req.RecurringEnabled, RecurringPattern: pattern,
	})
	if err != nil {
		h.writeCreateOrUpdateError(w, r, err)
		return
	}

	responses := make([]bookingResponse, 0, len(created))
	for _, b := range created {
		responses = append(responses, toBookingResponse(b))
	}
	if len(responses) == 1 && !req.RecurringEnabled {
		h.responder.WriteJSON(r.Context(), w, http.StatusCreated, responses[0])
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusCreated, responses)
}

func (h *Handlers) get(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusOK, h.decorate(b))
}

func (h *Handlers) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := ListFilter{TenantID: query.Get("tenant_id"), ResourceID: query.Get("resource_id"), UserID: query.Get("user_id")}
	if filter.TenantID == "" {
		h.responder.WriteError(r.Context(), w, http.StatusUnprocessableEntity, apperr.NewValidation("tenant_id query parameter is required"))
		return
	}

	principal, ok := httpkit.PrincipalFromContext(r.Context())
	if !ok || (!principal.IsService() && principal.TenantID != filter.TenantID) {
		h.responder.WriteError(r.Context(), w, http.StatusForbidden, errCrossTenantDenied)
		return
	}
	if filter.UserID == "" && !principal.CanViewAllBookings() {
		filter.UserID = principal.UserID
	}

	bookings, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	responses := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		responses = append(responses, h.decorate(b))
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusOK, responses)
}

func (h *Handlers) decorate(b Booking) bookingResponse {
	resp := toBookingResponse(b)
	hours := h.cancellationHours(b.TenantID)
	canCancel := b.CanCancel(time.Now(), hours)
	resp.CanCancel = &canCancel
	return resp
}

func (h *Handlers) update(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		h.responder.WriteError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	in := UpdateInput{}
	if req.StartTime != "" {
		start, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			h.responder.WriteError(r.Context(), w, http.StatusUnprocessableEntity, apperr.NewValidation("start_time must be RFC3339"))
			return
		}
		in.StartTime = &start
	}
	if req.EndTime != "" {
		end, err := time.Parse(time.RFC3339, req.EndTime)
		if err != nil {
			h.responder.WriteError(r.Context(), w, http.StatusUnprocessableEntity, apperr.NewValidation("end_time must be RFC3339"))
			return
		}
		in.EndTime = &end
	}
	if req.ResourceID != "" {
		in.ResourceID = &req.ResourceID
	}
	if req.Notes != "" {
		in.Notes = &req.Notes
	}
	if req.Status != "" {
		// The only status transition reachable through this endpoint is the
		// administrative pendente->confirmado confirm; cancellation stays on
		// the separately guarded PATCH /bookings/{id}/cancel path.
		if Status(req.Status) != StatusConfirmado {
			h.responder.WriteError(r.Context(), w, http.StatusUnprocessableEntity,
				apperr.NewValidation("status may only be set to confirmado here; use PATCH /bookings/{id}/cancel to cancel"))
			return
		}
		principal, ok := httpkit.PrincipalFromContext(r.Context())
		if !ok || !principal.IsAdmin() {
			h.responder.WriteError(r.Context(), w, http.StatusForbidden, errConfirmRequiresAdmin)
			return
		}
		status := StatusConfirmado
		in.Status = &status
	}

	updated, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeCreateOrUpdateError(w, r, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusOK, h.decorate(updated))
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handlers) cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	_ = httpkit.DecodeJSON(r, &req)

	principal, _ := httpkit.PrincipalFromContext(r.Context())
	cancelled, err := h.service.Cancel(r.Context(), chi.URLParam(r, "id"), principal.UserID, req.Reason)
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusOK, h.decorate(cancelled))
}

func (h *Handlers) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusNoContent, nil)
}

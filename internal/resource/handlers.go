package resource

import (
	"net/http"

	"github.com/example/scheduling-platform/internal/apperr"
	"github.com/example/scheduling-platform/internal/httpkit"
	"github.com/go-chi/chi/v5"
)

// Handlers wires Service onto chi routes, following
// internal/tenant/handlers.go's route-grouping style.
type Handlers struct {
	service   *Service
	responder httpkit.Responder
}

// NewHandlers constructs Handlers.
func NewHandlers(service *Service, responder httpkit.Responder) *Handlers {
	return &Handlers{service: service, responder: responder}
}

// Mount registers every resource-service route onto r. Every route requires
// a bearer token; writes additionally require can_manage_resources.
func (h *Handlers) Mount(r chi.Router, requireAuth, requireCanManage func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/categories/", h.listCategories)
		r.Get("/categories/{id}", h.getCategory)
		r.Get("/resources/", h.listResources)
		r.Get("/resources/{id}", h.getResource)
		r.Get("/resources/{id}/availability", h.availability)

		r.Group(func(r chi.Router) {
			r.Use(requireCanManage)
			r.Post("/categories/", h.createCategory)
			r.Put("/categories/{id}", h.updateCategory)
			r.Delete("/categories/{id}", h.deleteCategory)
			r.Post("/resources/", h.createResource)
			r.Put("/resources/{id}", h.updateResource)
			r.Delete("/resources/{id}", h.deleteResource)
		})
	})
}

type categoryRequest struct {
	TenantID    string         `json:"tenant_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Type        string         `json:"type"`
	Icon        string         `json:"icon"`
	Color       string         `json:"color"`
	IsActive    bool           `json:"is_active"`
	Metadata    map[string]any `json:"category_metadata"`
}

func (h *Handlers) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		h.responder.WriteError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	c, err := h.service.CreateCategory(r.Context(), CategoryInput{
		TenantID: req.TenantID, Name: req.Name, Description: req.Description,
		Type: CategoryType(req.Type), Icon: req.Icon, Color: req.Color, IsActive: req.IsActive, Metadata: req.Metadata,
	})
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusCreated, c)
}

func (h *Handlers) getCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	if !h.sameTenant(r, c.TenantID) {
		h.responder.WriteError(r.Context(), w, http.StatusForbidden, errCrossTenantDenied)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusOK, c)
}

func (h *Handlers) listCategories(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		h.responder.WriteError(r.Context(), w, http.StatusUnprocessableEntity, apperr.NewValidation("tenant_id query parameter is required"))
		return
	}
	if !h.sameTenant(r, tenantID) {
		h.responder.WriteError(r.Context(), w, http.StatusForbidden, errCrossTenantDenied)
		return
	}
	categories, err := h.service.ListCategories(r.Context(), tenantID)
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusOK, categories)
}

func (h *Handlers) updateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		h.responder.WriteError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	c, err := h.service.UpdateCategory(r.Context(), chi.URLParam(r, "id"), CategoryInput{
		Name: req.Name, Description: req.Description, Type: CategoryType(req.Type),
		Icon: req.Icon, Color: req.Color, IsActive: req.IsActive, Metadata: req.Metadata,
	})
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusOK, c)
}

func (h *Handlers) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusNoContent, nil)
}

type resourceRequest struct {
	TenantID             string              `json:"tenant_id"`
	CategoryID           string              `json:"category_id"`
	Name                 string              `json:"name"`
	Description          string              `json:"description"`
	Status               string              `json:"status"`
	Capacity             *int                `json:"capacity"`
	Location             string              `json:"location"`
	Attributes           map[string]any      `json:"attributes"`
	AvailabilitySchedule map[int][]TimeRange `json:"availability_schedule"`
	ImageURL             string              `json:"image_url"`
}

func (h *Handlers) createResource(w http.ResponseWriter, r *http.Request) {
	var req resourceRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		h.responder.WriteError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	res, err := h.service.CreateResource(r.Context(), ResourceInput{
		TenantID: req.TenantID, CategoryID: req.CategoryID, Name: req.Name, Description: req.Description,
		Status: Status(req.Status), Capacity: req.Capacity, Location: req.Location,
		Attributes: req.Attributes, AvailabilitySchedule: req.AvailabilitySchedule, ImageURL: req.ImageURL,
	})
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusCreated, res)
}

func (h *Handlers) getResource(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.GetResource(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	if !h.sameTenant(r, res.TenantID) {
		h.responder.WriteError(r.Context(), w, http.StatusForbidden, errCrossTenantDenied)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusOK, res)
}

func (h *Handlers) listResources(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		h.responder.WriteError(r.Context(), w, http.StatusUnprocessableEntity, apperr.NewValidation("tenant_id query parameter is required"))
		return
	}
	if !h.sameTenant(r, tenantID) {
		h.responder.WriteError(r.Context(), w, http.StatusForbidden, errCrossTenantDenied)
		return
	}
	resources, err := h.service.ListResources(r.Context(), tenantID)
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusOK, resources)
}

func (h *Handlers) updateResource(w http.ResponseWriter, r *http.Request) {
	var req resourceRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		h.responder.WriteError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	res, err := h.service.UpdateResource(r.Context(), chi.URLParam(r, "id"), ResourceInput{
		CategoryID: req.CategoryID, Name: req.Name, Description: req.Description, Status: Status(req.Status),
		Capacity: req.Capacity, Location: req.Location, Attributes: req.Attributes,
		AvailabilitySchedule: req.AvailabilitySchedule, ImageURL: req.ImageURL,
	})
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusOK, res)
}

func (h *Handlers) deleteResource(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteResource(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *Handlers) availability(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("data")
	if date == "" {
		date = r.URL.Query().Get("date")
	}
	if date == "" {
		h.responder.WriteError(r.Context(), w, http.StatusUnprocessableEntity, apperr.NewValidation("data query parameter is required"))
		return
	}
	id := chi.URLParam(r, "id")
	res, err := h.service.GetResource(r.Context(), id)
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	if !h.sameTenant(r, res.TenantID) {
		h.responder.WriteError(r.Context(), w, http.StatusForbidden, errCrossTenantDenied)
		return
	}
	result, err := h.service.GetAvailability(r.Context(), id, date)
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusOK, result)
}

// sameTenant reports whether the authenticated principal belongs to
// tenantID, or is a trusted inter-service caller (httpkit.Principal.IsService),
// per the "cross-tenant access is always deny" rule.
func (h *Handlers) sameTenant(r *http.Request, tenantID string) bool {
	principal, ok := httpkit.PrincipalFromContext(r.Context())
	return ok && (principal.IsService() || principal.TenantID == tenantID)
}

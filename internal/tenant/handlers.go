package tenant

import (
	"net/http"

	"github.com/example/scheduling-platform/internal/httpkit"
	"github.com/go-chi/chi/v5"
)

// Handlers wires Service onto chi routes, adapted from the teacher's
// internal/http/router.go method-switch style but expressed as chi routes
// instead of a hand-rolled ServeMux.
type Handlers struct {
	service   *Service
	responder httpkit.Responder
}

// NewHandlers constructs Handlers.
func NewHandlers(service *Service, responder httpkit.Responder) *Handlers {
	return &Handlers{service: service, responder: responder}
}

// Mount registers every tenant-service route onto r.
func (h *Handlers) Mount(r chi.Router, requireAuth, requireAdmin func(http.Handler) http.Handler) {
	r.Post("/tenants/", h.create)
	r.Get("/tenants/", h.list)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/tenants/{id}", h.get)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin, h.requireSameTenant)
			r.Get("/tenants/{id}/settings", h.getSettings)
			r.Put("/tenants/{id}", h.update)
			r.Delete("/tenants/{id}", h.delete)
			r.Put("/tenants/{id}/settings", h.updateSettings)
			r.Post("/tenants/{id}/webhooks", h.createWebhook)
			r.Get("/tenants/{id}/webhooks", h.listWebhooks)
			r.Get("/tenants/{id}/webhooks/{webhookID}", h.getWebhook)
			r.Put("/tenants/{id}/webhooks/{webhookID}", h.updateWebhook)
			r.Delete("/tenants/{id}/webhooks/{webhookID}", h.deleteWebhook)
		})
	})
}

// requireSameTenant enforces that admin operations on tenant {id} are only
// permitted to a caller whose own tenant_id matches, per spec.md §4.1's
// "hard security contract" against cross-tenant privilege escalation.
func (h *Handlers) requireSameTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := httpkit.PrincipalFromContext(r.Context())
		if !ok || (!principal.IsService() && principal.TenantID != chi.URLParam(r, "id")) {
			h.responder.WriteError(r.Context(), w, http.StatusForbidden, errCrossTenantDenied)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type createTenantRequest struct {
	Name              string               `json:"name"`
	Domain            string               `json:"domain"`
	LogoURL           string               `json:"logo_url"`
	ThemePrimaryColor string               `json:"theme_primary_color"`
	Plan              string               `json:"plan"`
	Settings          OrganizationSettings `json:"settings"`
}

func (h *Handlers) create(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		h.responder.WriteError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	t, err := h.service.Create(r.Context(), CreateTenantInput{
		Name: req.Name, Domain: req.Domain, LogoURL: req.LogoURL,
		ThemePrimaryColor: req.ThemePrimaryColor, Plan: Plan(req.Plan), Settings: req.Settings,
	})
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusCreated, t)
}

func (h *Handlers) list(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.service.List(r.Context())
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusOK, tenants)
}

func (h *Handlers) get(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusOK, t)
}

type updateTenantRequest struct {
	Name              string `json:"name"`
	LogoURL           string `json:"logo_url"`
	ThemePrimaryColor string `json:"theme_primary_color"`
	Plan              string `json:"plan"`
	IsActive          bool   `json:"is_active"`
}

func (h *Handlers) update(w http.ResponseWriter, r *http.Request) {
	var req updateTenantRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		h.responder.WriteError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	t, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), UpdateTenantInput{
		Name: req.Name, LogoURL: req.LogoURL, ThemePrimaryColor: req.ThemePrimaryColor,
		Plan: Plan(req.Plan), IsActive: req.IsActive,
	})
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusOK, t)
}

func (h *Handlers) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *Handlers) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.GetSettings(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusOK, settings)
}

func (h *Handlers) updateSettings(w http.ResponseWriter, r *http.Request) {
	var settings OrganizationSettings
	if err := httpkit.DecodeJSON(r, &settings); err != nil {
		h.responder.WriteError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	updated, err := h.service.UpdateSettings(r.Context(), chi.URLParam(r, "id"), settings)
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusOK, updated)
}

type createWebhookRequest struct {
	URL    string      `json:"url"`
	Events []EventKind `json:"events"`
	Secret string      `json:"secret"`
}

func (h *Handlers) createWebhook(w http.ResponseWriter, r *http.Request) {
	var req createWebhookRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		h.responder.WriteError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	webhook, err := h.service.CreateWebhook(r.Context(), CreateWebhookInput{
		TenantID: chi.URLParam(r, "id"), URL: req.URL, Events: req.Events, Secret: req.Secret,
	})
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusCreated, webhook)
}

func (h *Handlers) listWebhooks(w http.ResponseWriter, r *http.Request) {
	webhooks, err := h.service.ListWebhooks(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusOK, webhooks)
}

func (h *Handlers) getWebhook(w http.ResponseWriter, r *http.Request) {
	webhook, err := h.service.GetWebhook(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "webhookID"))
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusOK, webhook)
}

func (h *Handlers) updateWebhook(w http.ResponseWriter, r *http.Request) {
	var req createWebhookRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		h.responder.WriteError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	tenantID, id := chi.URLParam(r, "id"), chi.URLParam(r, "webhookID")
	updated, err := h.service.UpdateWebhook(r.Context(), tenantID, id, CreateWebhookInput{
		URL: req.URL, Events: req.Events, Secret: req.Secret,
	})
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusOK, updated)
}

func (h *Handlers) deleteWebhook(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteWebhook(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "webhookID")); err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusNoContent, nil)
}

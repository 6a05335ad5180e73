package user

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

// Mount registers every user-service route onto r.
func (h *Handlers) Mount(r chi.Router, requireAuth, requireAdmin func(http.Handler) http.Handler) {
	r.Post("/users/", h.create)
	r.Post("/users/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/users/me", h.me)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAdminOrSelf)
			r.Get("/users/{id}", h.get)
			r.Put("/users/{id}", h.update)
			r.Delete("/users/{id}", h.delete)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/users/", h.list)
		})
	})
}

// requireAdminOrSelf permits an admin of the target's own tenant, or the
// user acting on their own record; everyone else is denied.
func (h *Handlers) requireAdminOrSelf(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := httpkit.PrincipalFromContext(r.Context())
		id := chi.URLParam(r, "id")
		if !ok {
			h.responder.WriteError(r.Context(), w, http.StatusUnauthorized, errMissingPrincipal)
			return
		}
		if principal.UserID == id {
			next.ServeHTTP(w, r)
			return
		}
		if principal.IsAdmin() {
			target, err := h.service.Get(r.Context(), id)
			if err != nil {
				h.responder.HandleServiceError(r.Context(), w, err)
				return
			}
			if target.TenantID == principal.TenantID {
				next.ServeHTTP(w, r)
				return
			}
		}
		h.responder.WriteError(r.Context(), w, http.StatusForbidden, errForbidden)
	})
}

type createUserRequest struct {
	TenantID    string      `json:"tenant_id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone"`
	UserType    string      `json:"user_type"`
	Department  string      `json:"department"`
	Permissions Permissions `json:"permissions"`
	Password    string      `json:"password"`
}

func (h *Handlers) create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		h.responder.WriteError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	u, err := h.service.Create(r.Context(), CreateUserInput{
		TenantID: req.TenantID, Name: req.Name, Email: req.Email, Phone: req.Phone,
		UserType: UserType(req.UserType), Department: req.Department,
		Permissions: req.Permissions, Password: req.Password,
	})
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusCreated, u)
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// login authenticates against a form-encoded tenant_id, email, and
// password. tenant_id is required alongside email because email is only
// unique within a tenant (I7); email alone cannot select which tenant's
// user record to check the password against.
func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.responder.WriteError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	tenantID := r.FormValue("tenant_id")
	email := r.FormValue("email")
	password := r.FormValue("password")

	result, err := h.service.Authenticate(r.Context(), tenantID, email, password)
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusOK, loginResponse{
		AccessToken: result.AccessToken, TokenType: result.TokenType,
	})
}

func (h *Handlers) me(w http.ResponseWriter, r *http.Request) {
	principal, ok := httpkit.PrincipalFromContext(r.Context())
	if !ok {
		h.responder.WriteError(r.Context(), w, http.StatusUnauthorized, errMissingPrincipal)
		return
	}
	u, err := h.service.Get(r.Context(), principal.UserID)
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusOK, u)
}

func (h *Handlers) get(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusOK, u)
}

func (h *Handlers) list(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		h.responder.WriteError(r.Context(), w, http.StatusUnprocessableEntity, apperr.NewValidation("tenant_id query parameter is required"))
		return
	}
	principal, ok := httpkit.PrincipalFromContext(r.Context())
	if !ok || (!principal.IsService() && principal.TenantID != tenantID) {
		h.responder.WriteError(r.Context(), w, http.StatusForbidden, errForbidden)
		return
	}
	users, err := h.service.List(r.Context(), tenantID)
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusOK, users)
}

type updateUserRequest struct {
	Name        string      `json:"name"`
	Phone       string      `json:"phone"`
	Department  string      `json:"department"`
	IsActive    bool        `json:"is_active"`
	Permissions Permissions `json:"permissions"`
}

func (h *Handlers) update(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		h.responder.WriteError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	u, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), UpdateUserInput{
		Name: req.Name, Phone: req.Phone, Department: req.Department,
		IsActive: req.IsActive, Permissions: req.Permissions,
	})
	if err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusOK, u)
}

func (h *Handlers) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.responder.HandleServiceError(r.Context(), w, err)
		return
	}
	h.responder.WriteJSON(r.Context(), w, http.StatusNoContent, nil)
}

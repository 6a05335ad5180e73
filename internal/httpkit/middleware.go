package httpkit

import (
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/scheduling-platform/internal/authn"
	"github.com/example/scheduling-platform/internal/logging"
)

// RequestLogger attaches a request-scoped logger to the context and logs
// start/completion, matching the teacher's internal/http/middleware.go
// RequestLogger.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With("request_id", id, "method", r.Method, "path", r.URL.Path)

			ctx := logging.ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "duration", time.Since(start))
		})
	}
}

// RequireAuth verifies the bearer token on every request and injects the
// resulting Principal into the request context. Unlike the teacher's
// session-token lookup (RequireSession against a SessionRepository), every
// service here verifies the JWT locally against the shared signing secret,
// so no service has to call out to the user service on the request path.
func RequireAuth(signer *authn.Signer, responder Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responder.WriteError(r.Context(), w, http.StatusUnauthorized, errMissingBearerToken)
				return
			}

			claims, err := signer.Verify(token)
			if err != nil {
				responder.WriteError(r.Context(), w, http.StatusUnauthorized, errInvalidBearerToken)
				return
			}

			principal := Principal{
				UserID:      claims.Subject,
				TenantID:    claims.TenantID,
				UserType:    string(claims.UserType),
				Permissions: claims.Permissions,
			}
			ctx := ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects any request whose principal is not a tenant admin.
// Must run after RequireAuth.
func RequireAdmin(responder Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok || !principal.IsAdmin() {
				responder.WriteError(r.Context(), w, http.StatusForbidden, errAdminRequired)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCanManageResources rejects any request whose principal lacks the
// can_manage_resources permission (or admin standing). Must run after
// RequireAuth.
func RequireCanManageResources(responder Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok || !principal.CanManageResources() {
				responder.WriteError(r.Context(), w, http.StatusForbidden, errPermissionRequired)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCanBook rejects any request whose principal lacks the can_book
// permission (or admin standing). Must run after RequireAuth.
func RequireCanBook(responder Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok || !principal.CanBook() {
				responder.WriteError(r.Context(), w, http.StatusForbidden, errPermissionRequired)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

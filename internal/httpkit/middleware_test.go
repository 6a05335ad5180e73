package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/scheduling-platform/internal/authn"
)

func TestRequireAuth_RejectsMissingToken(t *testing.T) {
	signer, err := authn.NewSigner("secret", "HS256", time.Hour)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	responder := NewResponder(nil)

	handler := RequireAuth(signer, responder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not be reached without a token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireAuth_InjectsPrincipalOnValidToken(t *testing.T) {
	signer, err := authn.NewSigner("secret", "HS256", time.Hour)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	token, _, err := signer.Mint("user-1", "tenant-1", authn.UserTypeAdmin, authn.Permissions{})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	responder := NewResponder(nil)

	var gotPrincipal Principal
	handler := RequireAuth(signer, responder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			t.Fatalf("expected principal in context")
		}
		gotPrincipal = principal
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotPrincipal.UserID != "user-1" || gotPrincipal.TenantID != "tenant-1" {
		t.Fatalf("unexpected principal: %+v", gotPrincipal)
	}
}

func TestRequireAdmin_RejectsNonAdminPrincipal(t *testing.T) {
	responder := NewResponder(nil)
	handler := RequireAdmin(responder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not be reached for a non-admin principal")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := ContextWithPrincipal(req.Context(), Principal{UserID: "user-1", TenantID: "tenant-1", UserType: "member"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req.WithContext(ctx))

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

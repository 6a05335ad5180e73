package user

import (
	"context"
	"testing"
	"time"

	"github.com/example/scheduling-platform/internal/apperr"
	"github.com/example/scheduling-platform/internal/authn"
)

type fakeTenantChecker struct {
	existing map[string]bool
	err      error
}

func (f *fakeTenantChecker) TenantExists(ctx context.Context, tenantID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.existing[tenantID], nil
}

func newTestService(t *testing.T, tenants *fakeTenantChecker) *Service {
	t.Helper()
	repo := newTestRepo(t)
	signer, err := authn.NewSigner("test-secret", "HS256", time.Hour)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	counter := 0
	newID := func() string {
		counter++
		return "id-" + string(rune('0'+counter))
	}
	return NewService(repo, tenants, signer, nil, func() time.Time { return fixed }, newID)
}

func validCreateInput(tenantID string) CreateUserInput {
	return CreateUserInput{
		TenantID: tenantID, Name: "Ana Silva", Email: "ana@example.com",
		UserType: UserTypeUser, Password: "s3cr3tpw!",
	}
}

func TestService_CreateRejectsUnknownTenant(t *testing.T) {
	service := newTestService(t, &fakeTenantChecker{existing: map[string]bool{}})
	_, err := service.Create(context.Background(), validCreateInput("missing-tenant"))
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for unknown tenant, got %v", err)
	}
}

func TestService_CreateRejectsDuplicateEmailWithinTenant(t *testing.T) {
	service := newTestService(t, &fakeTenantChecker{existing: map[string]bool{"t1": true}})
	ctx := context.Background()
	in := validCreateInput("t1")

	if _, err := service.Create(ctx, in); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	_, err := service.Create(ctx, in)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestService_AuthenticateSucceedsWithCorrectPassword(t *testing.T) {
	service := newTestService(t, &fakeTenantChecker{existing: map[string]bool{"t1": true}})
	ctx := context.Background()
	created, err := service.Create(ctx, validCreateInput("t1"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	result, err := service.Authenticate(ctx, "t1", created.Email, "s3cr3tpw!")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if result.AccessToken == "" || result.TokenType != "bearer" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestService_AuthenticateRejectsWrongPassword(t *testing.T) {
	service := newTestService(t, &fakeTenantChecker{existing: map[string]bool{"t1": true}})
	ctx := context.Background()
	created, err := service.Create(ctx, validCreateInput("t1"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = service.Authenticate(ctx, "t1", created.Email, "wrong-password")
	if apperr.KindOf(err) != apperr.KindUnauthenticated {
		t.Fatalf("expected unauthenticated error, got %v", err)
	}
}

func TestService_AuthenticateScopesLookupByTenant(t *testing.T) {
	service := newTestService(t, &fakeTenantChecker{existing: map[string]bool{"t1": true, "t2": true}})
	ctx := context.Background()
	if _, err := service.Create(ctx, validCreateInput("t1")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := service.Authenticate(ctx, "t2", "ana@example.com", "s3cr3tpw!")
	if apperr.KindOf(err) != apperr.KindUnauthenticated {
		t.Fatalf("expected unauthenticated error for wrong tenant, got %v", err)
	}
}

func TestService_DeleteByTenantRemovesAllUsers(t *testing.T) {
	service := newTestService(t, &fakeTenantChecker{existing: map[string]bool{"t1": true}})
	ctx := context.Background()
	if _, err := service.Create(ctx, validCreateInput("t1")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := service.DeleteByTenant(ctx, "t1"); err != nil {
		t.Fatalf("DeleteByTenant: %v", err)
	}
	users, err := service.List(ctx, "t1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("expected no users after cascade delete, got %d", len(users))
	}
}

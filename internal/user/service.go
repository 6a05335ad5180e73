package user

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/example/scheduling-platform/internal/apperr"
	"github.com/example/scheduling-platform/internal/authn"
	"github.com/example/scheduling-platform/internal/eventbus"
	"github.com/google/uuid"
)

// TenantChecker verifies a tenant_id refers to an existing tenant (its
// is_active flag is not checked), satisfied by an HTTP client to the tenant
// service. Signup must reject an
// unknown tenant_id rather than silently create an orphaned user.
type TenantChecker interface {
	TenantExists(ctx context.Context, tenantID string) (bool, error)
}

// Service implements the user service's operations.
type Service struct {
	repo     Repository
	tenants  TenantChecker
	signer   *authn.Signer
	bus      eventbus.Publisher
	now      func() time.Time
	newID    func() string
}

// NewService constructs a Service. bus may be nil, in which case deletion
// events are not published.
func NewService(repo Repository, tenants TenantChecker, signer *authn.Signer, bus eventbus.Publisher, now func() time.Time, newID func() string) *Service {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return &Service{repo: repo, tenants: tenants, signer: signer, bus: bus, now: now, newID: newID}
}

// CreateUserInput is the validated payload for Create.
type CreateUserInput struct {
	TenantID    string
	Name        string
	Email       string
	Phone       string
	UserType    UserType
	Department  string
	Permissions Permissions
	Password    string
}

func (in CreateUserInput) validate() *apperr.ValidationError {
	v := apperr.NewValidation("user is invalid")
	if strings.TrimSpace(in.TenantID) == "" {
		v.Add("tenant_id", "must not be empty")
	}
	if strings.TrimSpace(in.Name) == "" {
		v.Add("name", "must not be empty")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		v.Add("email", "must be a valid email address")
	}
	if in.UserType != UserTypeAdmin && in.UserType != UserTypeUser {
		v.Add("user_type", "must be admin or user")
	}
	if len(in.Password) < 8 {
		v.Add("password", "must be at least 8 characters")
	}
	if v.HasErrors() {
		return v
	}
	return nil
}

// Create provisions a new user within an existing tenant (public signup
// path per spec.md §4.2, but tenant_id must refer to an existing tenant).
func (s *Service) Create(ctx context.Context, in CreateUserInput) (User, error) {
	if v := in.validate(); v != nil {
		return User{}, v
	}

	exists, err := s.tenants.TenantExists(ctx, in.TenantID)
	if err != nil {
		return User{}, apperr.Wrap(apperr.KindDependencyUnavailable, "could not verify tenant", err)
	}
	if !exists {
		return User{}, apperr.New(apperr.KindValidation, "tenant_id does not refer to an existing tenant")
	}

	if _, err := s.repo.GetByEmail(ctx, in.TenantID, in.Email); err == nil {
		return User{}, apperr.New(apperr.KindConflict, "email is already registered for this tenant")
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, apperr.Wrap(apperr.KindInternal, "failed to check email uniqueness", err)
	}

	hash, err := authn.HashPassword(in.Password, authn.DefaultArgon2idParams)
	if err != nil {
		return User{}, apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}

	u := User{
		ID: s.newID(), TenantID: in.TenantID, Name: in.Name, Email: in.Email, Phone: in.Phone,
		UserType: in.UserType, Department: in.Department, IsActive: true,
		Permissions: in.Permissions, PasswordHash: hash, CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, apperr.Wrap(apperr.KindInternal, "failed to create user", err)
	}
	return u, nil
}

// Get returns a user by ID.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	u, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return User{}, apperr.NotFound("user")
	}
	if err != nil {
		return User{}, apperr.Wrap(apperr.KindInternal, "failed to load user", err)
	}
	return u, nil
}

// List returns every user of a tenant. Callers enforce the admin-only
// restriction at the HTTP layer.
func (s *Service) List(ctx context.Context, tenantID string) ([]User, error) {
	users, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list users", err)
	}
	return users, nil
}

// UpdateUserInput is the validated payload for Update.
type UpdateUserInput struct {
	Name        string
	Phone       string
	Department  string
	IsActive    bool
	Permissions Permissions
}

// Update applies in to the user identified by id.
func (s *Service) Update(ctx context.Context, id string, in UpdateUserInput) (User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return User{}, apperr.NewValidation("name must not be empty")
	}
	u.Name, u.Phone, u.Department, u.IsActive, u.Permissions = in.Name, in.Phone, in.Department, in.IsActive, in.Permissions
	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, apperr.Wrap(apperr.KindInternal, "failed to update user", err)
	}
	return u, nil
}

// userDeletedPayload is decoded by the booking service's cascade consumer
// to bulk-cancel the user's outstanding bookings.
type userDeletedPayload struct {
	UserID string `json:"user_id"`
}

// Delete removes a user and publishes user.deleted so the booking service
// can cascade-cancel their outstanding bookings.
func (s *Service) Delete(ctx context.Context, id string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to delete user", err)
	}
	if s.bus != nil {
		if event, err := eventbus.NewEvent(s.newID(), eventbus.EventUserDeleted, existing.TenantID, s.now(), userDeletedPayload{UserID: id}); err == nil {
			_ = s.bus.Publish(ctx, eventbus.StreamDeletionEvents, event)
		}
	}
	return nil
}

// AuthenticateResult is returned by Authenticate on success.
type AuthenticateResult struct {
	AccessToken string
	ExpiresAt   time.Time
	TokenType   string
}

// Authenticate verifies tenantID+email+password and mints a bearer token.
// The login form requires tenant_id alongside email and password: email
// uniqueness is scoped per-tenant (spec.md I7), so email alone cannot
// disambiguate which tenant's user record to check against.
func (s *Service) Authenticate(ctx context.Context, tenantID, email, password string) (AuthenticateResult, error) {
	u, err := s.repo.GetByEmail(ctx, tenantID, email)
	if errors.Is(err, ErrNotFound) {
		return AuthenticateResult{}, apperr.New(apperr.KindUnauthenticated, "invalid email or password")
	}
	if err != nil {
		return AuthenticateResult{}, apperr.Wrap(apperr.KindInternal, "failed to load user", err)
	}
	if !u.IsActive {
		return AuthenticateResult{}, apperr.New(apperr.KindUnauthenticated, "invalid email or password")
	}

	if verifyErr := authn.VerifyPassword(u.PasswordHash, password); verifyErr != nil {
		return AuthenticateResult{}, apperr.New(apperr.KindUnauthenticated, "invalid email or password")
	}

	token, expiresAt, err := s.signer.Mint(u.ID, u.TenantID, authn.UserType(u.UserType), authn.Permissions{
		CanBook:            u.Permissions.CanBook,
		CanManageResources: u.Permissions.CanManageResources,
		CanManageUsers:     u.Permissions.CanManageUsers,
		CanViewAllBookings: u.Permissions.CanViewAllBookings,
	})
	if err != nil {
		return AuthenticateResult{}, apperr.Wrap(apperr.KindInternal, "failed to mint access token", err)
	}
	return AuthenticateResult{AccessToken: token, ExpiresAt: expiresAt, TokenType: "bearer"}, nil
}

// DeleteByTenant hard-deletes every user of tenantID, invoked by the
// tenant.deleted cascade consumer.
func (s *Service) DeleteByTenant(ctx context.Context, tenantID string) error {
	if err := s.repo.DeleteByTenant(ctx, tenantID); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to cascade-delete users", err)
	}
	return nil
}

package httpkit

import (
	"context"
	"strings"

	"github.com/example/scheduling-platform/internal/authn"
)

type contextKey struct{ name string }

var principalContextKey = &contextKey{name: "principal"}

// Principal identifies the authenticated caller, decoded from the bearer
// token's claims by RequireAuth.
type Principal struct {
	UserID      string
	TenantID    string
	UserType    string
	Permissions authn.Permissions
}

// IsAdmin reports whether the principal holds the tenant-admin role.
func (p Principal) IsAdmin() bool { return p.UserType == "admin" }

// CanManageResources reports whether the principal may create, update, or
// delete resources and categories. Admins always can, regardless of the
// fine-grained permission flag.
func (p Principal) CanManageResources() bool { return p.IsAdmin() || p.Permissions.CanManageResources }

// CanManageUsers reports whether the principal may create, update, or
// delete other users within its tenant.
func (p Principal) CanManageUsers() bool { return p.IsAdmin() || p.Permissions.CanManageUsers }

// CanViewAllBookings reports whether the principal may list bookings
// belonging to other users within its tenant.
func (p Principal) CanViewAllBookings() bool { return p.IsAdmin() || p.Permissions.CanViewAllBookings }

// CanBook reports whether the principal may create or update bookings.
func (p Principal) CanBook() bool { return p.IsAdmin() || p.Permissions.CanBook }

// IsService reports whether the principal is a trusted inter-service
// caller minted by authn.ServiceTokenSource rather than an end user, per
// the subject convention "service:<name>". Service principals are exempt
// from same-tenant checks: they carry tenant_id "system" and act as the
// calling service's own read path, not as any particular tenant's user.
func (p Principal) IsService() bool { return strings.HasPrefix(p.UserID, "service:") }

// ContextWithPrincipal returns a copy of ctx carrying principal.
func ContextWithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext retrieves the Principal stored by RequireAuth, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(Principal)
	return principal, ok
}

package authn

import (
	"sync/atomic"
	"time"
)

// ServiceTokenSource mints and transparently refreshes a long-lived token
// that identifies a calling service rather than an end user. The
// cross-service HTTP clients (tenant.HTTPClient, user.TenantHTTPClient,
// resource.BookingHTTPClient, booking.ResourceHTTPClient) all call read
// endpoints mounted behind httpkit.RequireAuth, some also behind
// RequireAdmin. The token carries user_type admin, and the handlers'
// same-tenant checks let a service principal (httpkit.Principal.IsService)
// through, so it does not need to belong to any particular tenant or end
// user.
type ServiceTokenSource struct {
	signer  *Signer
	userID  string
	current atomic.Value // string
}

// NewServiceTokenSource mints an initial token and starts a background
// goroutine that remints it before expiry, so Token never serves an expired
// value.
func NewServiceTokenSource(signer *Signer, serviceName string) (*ServiceTokenSource, error) {
	s := &ServiceTokenSource{signer: signer, userID: "service:" + serviceName}
	if err := s.remint(); err != nil {
		return nil, err
	}
	go s.refreshLoop()
	return s, nil
}

func (s *ServiceTokenSource) remint() error {
	token, _, err := s.signer.Mint(s.userID, "system", UserTypeAdmin, Permissions{
		CanBook:            true,
		CanManageResources: true,
		CanManageUsers:     true,
		CanViewAllBookings: true,
	})
	if err != nil {
		return err
	}
	s.current.Store(token)
	return nil
}

func (s *ServiceTokenSource) refreshLoop() {
	interval := s.signer.tokenTTL * 2 / 3
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		_ = s.remint()
	}
}

// Token returns the current signed token. Safe for concurrent use as a
// cross-service HTTP client's bearer token source.
func (s *ServiceTokenSource) Token() string {
	v, _ := s.current.Load().(string)
	return v
}

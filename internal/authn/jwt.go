package authn

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserType mirrors the role classification carried in a token's claims and
// consulted by every service's RBAC check.
type UserType string

const (
	UserTypeAdmin UserType = "admin"
	UserTypeUser  UserType = "user"
)

// Permissions mirrors the fine-grained capability set the user service
// stores per account, carried in the token so downstream services can
// authorize writes without calling back to the user service.
type Permissions struct {
	CanBook            bool `json:"can_book"`
	CanManageResources bool `json:"can_manage_resources"`
	CanManageUsers     bool `json:"can_manage_users"`
	CanViewAllBookings bool `json:"can_view_all_bookings"`
}

// Claims is the bearer token payload every service mints and verifies:
// {sub, tenant_id, user_type, permissions, exp} plus the registered claims
// jwt/v5 expects for expiry handling.
type Claims struct {
	TenantID    string      `json:"tenant_id"`
	UserType    UserType    `json:"user_type"`
	Permissions Permissions `json:"permissions"`
	jwt.RegisteredClaims
}

var (
	ErrMissingSecret = errors.New("authn: signing secret must not be empty")
	ErrInvalidToken  = errors.New("authn: invalid or expired token")
)

// Signer mints and verifies bearer tokens with one HMAC secret shared by all
// tenants.
// Every service is configured with the same SECRET_KEY so any service can
// verify a token minted by the user service.
type Signer struct {
	secret        []byte
	signingMethod jwt.SigningMethod
	tokenTTL      time.Duration
}

// NewSigner constructs a Signer. algorithm accepts "HS256" or "HS384" or
// "HS512"; any other value defaults to HS256.
func NewSigner(secret string, algorithm string, tokenTTL time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	method := jwt.GetSigningMethod(algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		method = jwt.SigningMethodHS256
	}
	return &Signer{secret: []byte(secret), signingMethod: method, tokenTTL: tokenTTL}, nil
}

// Mint issues a signed token for the given subject (user ID), tenant,
// role, and permission set, expiring tokenTTL from now.
func (s *Signer) Mint(userID, tenantID string, userType UserType, permissions Permissions) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.tokenTTL)

	claims := Claims{
		TenantID:    tenantID,
		UserType:    userType,
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(s.signingMethod, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("authn: sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify parses and validates a bearer token, returning its claims.
func (s *Signer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method != s.signingMethod {
			return nil, fmt.Errorf("authn: unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.TenantID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

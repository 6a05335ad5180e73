package authn

import (
	"testing"
	"time"
)

func TestSigner_MintAndVerifyRoundTrips(t *testing.T) {
	signer, err := NewSigner("test-secret", "HS256", time.Hour)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	token, expiresAt, err := signer.Mint("user-1", "tenant-1", UserTypeAdmin, Permissions{})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if expiresAt.Before(time.Now()) {
		t.Fatalf("expected expiry in the future")
	}

	claims, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("unexpected subject: %q", claims.Subject)
	}
	if claims.TenantID != "tenant-1" {
		t.Fatalf("unexpected tenant: %q", claims.TenantID)
	}
	if claims.UserType != UserTypeAdmin {
		t.Fatalf("unexpected user type: %q", claims.UserType)
	}
}

func TestSigner_VerifyRejectsExpiredToken(t *testing.T) {
	signer, err := NewSigner("test-secret", "HS256", -time.Hour)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	token, _, err := signer.Mint("user-1", "tenant-1", UserTypeUser, Permissions{})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	if _, err := signer.Verify(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestSigner_VerifyRejectsTokenFromDifferentSecret(t *testing.T) {
	signerA, err := NewSigner("secret-a", "HS256", time.Hour)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	signerB, err := NewSigner("secret-b", "HS256", time.Hour)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	token, _, err := signerA.Mint("user-1", "tenant-1", UserTypeUser, Permissions{})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	if _, err := signerB.Verify(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for mismatched secret, got %v", err)
	}
}

func TestNewSigner_RejectsEmptySecret(t *testing.T) {
	if _, err := NewSigner("", "HS256", time.Hour); err != ErrMissingSecret {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}

package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeRevocationSet struct {
	revoked map[string]bool
}

func newFakeRevocationSet() *fakeRevocationSet {
	return &fakeRevocationSet{revoked: make(map[string]bool)}
}

func (f *fakeRevocationSet) Revoke(_ context.Context, jti string, _ time.Duration) error {
	f.revoked[jti] = true
	return nil
}

func (f *fakeRevocationSet) IsRevoked(_ context.Context, jti string) (bool, error) {
	return f.revoked[jti], nil
}

func TestIssueAndValidate(t *testing.T) {
	gate := NewGate("test-secret", newFakeRevocationSet())

	token, expiresAt, err := gate.Issue(42, "kari@example.com", "admin", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(expiresAt) < 59*time.Minute {
		t.Fatalf("unexpected expiry %v", expiresAt)
	}

	principal, err := gate.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if principal.ID != 42 || principal.Email != "kari@example.com" || principal.Role != "admin" {
		t.Fatalf("unexpected principal: %+v", principal)
	}
	if principal.JTI == "" {
		t.Fatal("expected a JTI")
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	gate := NewGate("test-secret", newFakeRevocationSet())
	other := NewGate("different-secret", newFakeRevocationSet())

	token, _, err := gate.Issue(42, "kari@example.com", "user", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := other.Validate(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	gate := NewGate("test-secret", newFakeRevocationSet())

	token, _, err := gate.Issue(42, "kari@example.com", "user", -time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := gate.Validate(context.Background(), token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	gate := NewGate("test-secret", newFakeRevocationSet())

	if _, err := gate.Validate(context.Background(), "definitely-not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRevokedCredentialFailsBeforeExpiry(t *testing.T) {
	gate := NewGate("test-secret", newFakeRevocationSet())

	token, _, err := gate.Issue(42, "kari@example.com", "user", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := gate.Validate(context.Background(), token); err != nil {
		t.Fatalf("Validate before revoke: %v", err)
	}

	if err := gate.Revoke(context.Background(), token); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	if _, err := gate.Validate(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after revoke, got %v", err)
	}
}

func TestRevokeIgnoresInvalidCredential(t *testing.T) {
	set := newFakeRevocationSet()
	gate := NewGate("test-secret", set)

	if err := gate.Revoke(context.Background(), "garbage"); err != nil {
		t.Fatalf("Revoke of garbage must be a no-op, got %v", err)
	}
	if len(set.revoked) != 0 {
		t.Fatalf("nothing should be revoked, got %v", set.revoked)
	}
}

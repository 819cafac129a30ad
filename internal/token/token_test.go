package token

import (
	"errors"
	"testing"
	"time"

	"github.com/accordhq/backend/internal/domain"
)

const testSecret = "test-signing-secret"

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer(testSecret, time.Hour)
	verifier := NewVerifier(testSecret)

	raw, expiresAt, err := issuer.Issue("user-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if until := time.Until(expiresAt); until < 59*time.Minute {
		t.Errorf("expiry too soon: %v", until)
	}

	sub, err := verifier.Verify(raw)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if sub != "user-1" {
		t.Errorf("expected subject user-1, got %q", sub)
	}
}

func TestVerifyExpiredCredential(t *testing.T) {
	issuer := NewIssuer(testSecret, time.Minute)
	verifier := NewVerifier(testSecret)

	raw, _, err := issuer.Issue("user-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	NowTimeFunc = func() time.Time { return time.Now().Add(2 * time.Minute) }
	defer func() { NowTimeFunc = time.Now }()

	if _, err := verifier.Verify(raw); !errors.Is(err, domain.ErrCredentialExpired) {
		t.Errorf("expected ErrCredentialExpired, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := NewIssuer(testSecret, time.Hour)
	verifier := NewVerifier("some-other-secret")

	raw, _, err := issuer.Issue("user-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := verifier.Verify(raw); !errors.Is(err, domain.ErrCredentialInvalid) {
		t.Errorf("expected ErrCredentialInvalid, got %v", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	verifier := NewVerifier(testSecret)
	if _, err := verifier.Verify("not-a-token"); !errors.Is(err, domain.ErrCredentialInvalid) {
		t.Errorf("expected ErrCredentialInvalid, got %v", err)
	}
}

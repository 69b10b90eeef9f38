package token

import (
	"errors"
	"testing"
	"time"
)

func TestIssueValidateRoundtrip(t *testing.T) {
	m := NewManager("secret", "node.example", time.Hour)

	tok, err := m.IssueConfirm(42)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, err := m.Validate(tok)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.Action != ActionConfirm {
		t.Fatalf("expected confirm action, got %s", claims.Action)
	}
	id, err := claims.CommentID()
	if err != nil || id != 42 {
		t.Fatalf("expected comment id 42, got %d (%v)", id, err)
	}
}

func TestDestroyTokenCarriesItsAction(t *testing.T) {
	m := NewManager("secret", "node.example", time.Hour)

	tok, err := m.IssueDestroy(7)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	claims, err := m.Validate(tok)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.Action != ActionDestroy {
		t.Fatalf("expected destroy action, got %s", claims.Action)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	// A negative ttl issues tokens whose expiry is already in the past.
	m := NewManager("secret", "node.example", -time.Minute)

	tok, err := m.IssueConfirm(1)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	_, err = m.Validate(tok)
	if !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestExpiredTokenSurfacesClaims(t *testing.T) {
	m := NewManager("secret", "node.example", -time.Minute)

	tok, err := m.IssueConfirm(42)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, err := m.Validate(tok)
	if !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
	if claims == nil {
		t.Fatal("expected claims alongside ErrExpiredToken")
	}
	id, err := claims.CommentID()
	if err != nil || id != 42 {
		t.Fatalf("expected surfaced subject 42, got %d (%v)", id, err)
	}
}

func TestZeroTTLSelectsDefault(t *testing.T) {
	m := NewManager("secret", "node.example", 0)

	tok, err := m.IssueConfirm(1)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	claims, err := m.Validate(tok)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if remaining := claims.ExpiresIn(0); remaining <= 0 || remaining > DefaultTTL {
		t.Fatalf("expected expiry within the default window, got %v", remaining)
	}
}

func TestForeignSecretRejected(t *testing.T) {
	issuer := NewManager("secret-a", "node.example", time.Hour)
	verifier := NewManager("secret-b", "node.example", time.Hour)

	tok, _ := issuer.IssueConfirm(1)
	if _, err := verifier.Validate(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestIssuerMismatchRejected(t *testing.T) {
	issuer := NewManager("secret", "node-a.example", time.Hour)
	verifier := NewManager("secret", "node-b.example", time.Hour)

	tok, _ := issuer.IssueConfirm(1)
	if _, err := verifier.Validate(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSessionTokenIsNotAConfirmationToken(t *testing.T) {
	m := NewManager("secret", "node.example", time.Hour)

	tok, err := m.IssueSession("a@example.com", time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := m.Validate(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected session token to be rejected as confirmation token, got %v", err)
	}
	if _, err := m.ValidateSession(tok); err != nil {
		t.Fatalf("expected session validation to pass: %v", err)
	}
}

func TestMalformedTokenRejected(t *testing.T) {
	m := NewManager("secret", "node.example", time.Hour)
	if _, err := m.Validate("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

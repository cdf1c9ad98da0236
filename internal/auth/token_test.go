package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/taksyapp/tasks-api/internal"
)

func TestIssueAndVerify(t *testing.T) {
	tokens := NewTokens("test-secret")

	issued, err := tokens.Issue(internal.Principal{ID: "u1", Role: internal.RoleAdmin})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	principal, err := tokens.Verify(issued)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	if principal.ID != "u1" {
		t.Errorf("ID: got %s, want u1", principal.ID)
	}
	if principal.Role != internal.RoleAdmin {
		t.Errorf("Role: got %s, want admin", principal.Role)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	issued, err := NewTokens("one-secret").Issue(internal.Principal{ID: "u1", Role: internal.RoleUser})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	_, err = NewTokens("another-secret").Verify(issued)
	if err == nil {
		t.Fatal("Verify succeeded with the wrong secret")
	}

	var ierr *internal.Error
	if !errors.As(err, &ierr) || ierr.Code() != internal.ErrorCodeUnauthenticated {
		t.Errorf("got %v, want unauthenticated", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	claims := Claims{
		ID:   "u1",
		Role: internal.RoleUser,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  time.Now().Add(-2 * Expiration).Unix(),
			ExpiresAt: time.Now().Add(-Expiration).Unix(),
		},
	}

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}

	if _, err := NewTokens("test-secret").Verify(expired); err == nil {
		t.Fatal("Verify succeeded with an expired token")
	}
}

func TestIssueExpiration(t *testing.T) {
	tokens := NewTokens("test-secret")

	issued, err := tokens.Issue(internal.Principal{ID: "u1", Role: internal.RoleUser})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	var claims Claims
	if _, err := jwt.ParseWithClaims(issued, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	}); err != nil {
		t.Fatalf("ParseWithClaims failed: %v", err)
	}

	lifetime := time.Unix(claims.ExpiresAt, 0).Sub(time.Unix(claims.IssuedAt, 0))
	if lifetime != Expiration {
		t.Errorf("lifetime: got %s, want %s", lifetime, Expiration)
	}
}

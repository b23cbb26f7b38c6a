package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSessionToken_RoundTrip(t *testing.T) {
	token, err := GenerateSessionToken("test-secret", "artist@studio.io", time.Hour)
	if err != nil {
		t.Fatalf("GenerateSessionToken returned error: %v", err)
	}

	claims, err := ValidateSessionToken(token, "test-secret")
	if err != nil {
		t.Fatalf("ValidateSessionToken returned error: %v", err)
	}
	if claims.Email != "artist@studio.io" {
		t.Errorf("email = %q, want %q", claims.Email, "artist@studio.io")
	}
	if claims.Subject != "artist@studio.io" {
		t.Errorf("subject = %q, want %q", claims.Subject, "artist@studio.io")
	}
}

func TestValidateSessionToken_WrongSecret(t *testing.T) {
	token, err := GenerateSessionToken("test-secret", "artist@studio.io", time.Hour)
	if err != nil {
		t.Fatalf("GenerateSessionToken returned error: %v", err)
	}

	if _, err := ValidateSessionToken(token, "other-secret"); err == nil {
		t.Error("expected error for a token signed with another secret")
	}
}

func TestValidateSessionToken_Expired(t *testing.T) {
	token, err := GenerateSessionToken("test-secret", "artist@studio.io", -time.Hour)
	if err != nil {
		t.Fatalf("GenerateSessionToken returned error: %v", err)
	}

	if _, err := ValidateSessionToken(token, "test-secret"); err == nil {
		t.Error("expected error for an expired token")
	}
}

func TestValidateSessionToken_RejectsUnsignedToken(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, SessionClaims{Email: "artist@studio.io"})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing returned error: %v", err)
	}

	if _, err := ValidateSessionToken(token, "test-secret"); err == nil {
		t.Error("expected error for an unsigned token")
	}
}

func TestValidateSessionToken_Garbage(t *testing.T) {
	if _, err := ValidateSessionToken("not-a-token", "test-secret"); err == nil {
		t.Error("expected error for a malformed token")
	}
}

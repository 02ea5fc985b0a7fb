package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWT_GenerateAndValidate(t *testing.T) {
	j := NewJWT("my-secret-key", time.Hour)

	token, err := j.Generate(123, "test@example.com", "ROLE_ADMIN")
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	if token == "" {
		t.Fatal("Generate() returned empty token")
	}

	claims, err := j.Validate(token)
	if err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if claims.UserID != 123 {
		t.Errorf("UserID = %d, want 123", claims.UserID)
	}
	if claims.Email != "test@example.com" {
		t.Errorf("Email = %s, want test@example.com", claims.Email)
	}
	if claims.Role != "ROLE_ADMIN" {
		t.Errorf("Role = %s, want ROLE_ADMIN", claims.Role)
	}
}

func TestJWT_TamperedSignature(t *testing.T) {
	j := NewJWT("my-secret-key", time.Hour)
	token, _ := j.Generate(1, "a@b.com", "ROLE_USER")

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + ".invalid-signature"

	if _, err := j.Validate(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate() error = %v, want %v", err, ErrInvalidToken)
	}
	if _, err := j.Validate("invalid.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate() error = %v, want %v", err, ErrInvalidToken)
	}
}

func TestJWT_WrongSecret(t *testing.T) {
	token, _ := NewJWT("secret-a", time.Hour).Generate(1, "a@b.com", "ROLE_USER")

	if _, err := NewJWT("secret-b", time.Hour).Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate() error = %v, want %v", err, ErrInvalidToken)
	}
}

func TestJWT_ExpiredToken(t *testing.T) {
	j := NewJWT("my-secret-key", time.Hour)
	issued := time.Now().Add(-2 * time.Hour)
	j.now = func() time.Time { return issued }

	token, err := j.Generate(1, "a@b.com", "ROLE_USER")
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}

	j.now = time.Now
	if _, err := j.Validate(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Validate() error = %v, want %v", err, ErrExpiredToken)
	}
}

func TestJWT_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("my-secret-key"))
	if err != nil {
		t.Fatalf("SignedString() failed: %v", err)
	}

	if _, err := NewJWT("my-secret-key", time.Hour).Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate() error = %v, want %v", err, ErrInvalidToken)
	}
}

func TestNewJWT_DefaultTTL(t *testing.T) {
	if j := NewJWT("s", 0); j.ttl != DefaultTokenTTL {
		t.Errorf("ttl = %s, want %s", j.ttl, DefaultTokenTTL)
	}
}

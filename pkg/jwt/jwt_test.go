package jwtutil

import (
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func TestParseAccessToken(t *testing.T) {
	t.Parallel()

	secret := []byte("test-secret")

	tokenStr, err := SignAccessToken("user-42", RoleStaff, secret, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := ParseAccessToken(tokenStr, secret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user-42" {
		t.Fatalf("expected uid user-42, got %q", claims.UserID)
	}
	if claims.Role != RoleStaff {
		t.Fatalf("expected staff role, got %q", claims.Role)
	}

	if _, err := ParseAccessToken(tokenStr, []byte("wrong-secret")); err == nil {
		t.Fatal("expected signature verification to fail with the wrong secret")
	}
}

func TestParseAccessToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("test-secret")
	tokenStr, err := SignAccessToken("user-42", RoleUser, secret, -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := ParseAccessToken(tokenStr, secret); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseAccessToken_RejectsUnsignedAlgorithm(t *testing.T) {
	t.Parallel()

	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "user-42", Role: RoleStaff})
	tokenStr, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	if _, err := ParseAccessToken(tokenStr, []byte("test-secret")); err == nil {
		t.Fatal("expected alg=none token to be rejected")
	}
}

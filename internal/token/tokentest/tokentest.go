// ABOUTME: Test helpers that mint signed tokens shaped like the backend's
// ABOUTME: Shared by session, auth, client and cmd tests

package tokentest

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var signingKey = []byte("tokentest-signing-key")

// Mint signs claims with HS256
func Mint(t testing.TB, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}
	return tok
}

// For mints a token for role expiring ttl from now. A negative ttl gives an
// expired token.
func For(t testing.TB, sub any, email, role string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	return Mint(t, jwt.MapClaims{
		"sub":   sub,
		"email": email,
		"role":  role,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	})
}

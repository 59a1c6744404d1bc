package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTAuth_RoundTrip(t *testing.T) {
	auth := NewJWTAuth("test-secret")

	token, err := auth.GenerateAccessToken("Ana", true, "sid-1")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	claims, err := auth.ParseToken(token)
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}
	if claims.User != "Ana" || !claims.IsAdmin || claims.SessionID != "sid-1" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if auth.AccessTokenTTLSeconds() != 900 {
		t.Fatalf("expected 900 second ttl, got %d", auth.AccessTokenTTLSeconds())
	}
}

func TestJWTAuth_RejectsForeignSecret(t *testing.T) {
	token, _ := NewJWTAuth("other-secret").GenerateAccessToken("Ana", false, "sid-1")

	if _, err := NewJWTAuth("test-secret").ParseToken(token); err == nil {
		t.Fatalf("expected signature error")
	}
}

func signed(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	return token
}

func TestJWTAuth_Middleware(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	valid, _ := auth.GenerateAccessToken("Ana", false, "sid-1")
	expired := signed(t, "test-secret", Claims{
		User:      "Ana",
		SessionID: "sid-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	noSession := signed(t, "test-secret", Claims{
		User: "Ana",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})

	tests := []struct {
		name     string
		header   string
		expected int
		code     string
	}{
		{"missing header", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"missing session id", "Bearer " + noSession, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"valid", "Bearer " + valid, http.StatusOK, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got *Claims
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetClaims(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			auth.Middleware(next).ServeHTTP(rr, req)

			if rr.Code != tc.expected {
				t.Fatalf("expected status %d, got %d", tc.expected, rr.Code)
			}
			if tc.code != "" && !strings.Contains(rr.Body.String(), tc.code) {
				t.Fatalf("expected code %s in %s", tc.code, rr.Body.String())
			}
			if tc.expected == http.StatusOK && (got == nil || got.User != "Ana") {
				t.Fatalf("expected claims in context, got %+v", got)
			}
		})
	}
}

package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGoogleVerifierValidatesTokenUsingJWKS(t *testing.T) {
	privateKey, jwksServer := newJWKSFixture(t)
	defer jwksServer.Close()

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"aud":   "test-client",
		"iss":   "https://accounts.google.com",
		"sub":   "user-123",
		"email": "sensei@example.com",
		"name":  "担任の先生",
		"exp":   now.Add(5 * time.Minute).Unix(),
		"iat":   now.Unix(),
	}

	signedToken := signTestToken(t, privateKey, claims)

	verifier, err := NewGoogleVerifier(GoogleVerifierConfig{
		Audience:       "test-client",
		JWKSURL:        jwksServer.URL + "/oauth2/v3/certs",
		AllowedIssuers: []string{"https://accounts.google.com", "accounts.google.com"},
		HTTPClient:     jwksServer.Client(),
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}

	verified, err := verifier.Verify(context.Background(), signedToken)
	if err != nil {
		t.Fatalf("expected verification to succeed: %v", err)
	}

	if verified.Subject != "user-123" {
		t.Fatalf("unexpected subject %s", verified.Subject)
	}
	if verified.Email != "sensei@example.com" {
		t.Fatalf("unexpected email %s", verified.Email)
	}
	if verified.DisplayName != "担任の先生" {
		t.Fatalf("unexpected display name %s", verified.DisplayName)
	}
	if verified.Audience != "test-client" {
		t.Fatalf("unexpected audience %s", verified.Audience)
	}
}

func TestGoogleVerifierRejectsTokensWithoutEmail(t *testing.T) {
	privateKey, jwksServer := newJWKSFixture(t)
	defer jwksServer.Close()

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"aud": "test-client",
		"iss": "https://accounts.google.com",
		"sub": "user-123",
		"exp": now.Add(5 * time.Minute).Unix(),
		"iat": now.Unix(),
	}
	signedToken := signTestToken(t, privateKey, claims)

	verifier, err := NewGoogleVerifier(GoogleVerifierConfig{
		Audience:   "test-client",
		JWKSURL:    jwksServer.URL + "/oauth2/v3/certs",
		HTTPClient: jwksServer.Client(),
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}

	if _, err := verifier.Verify(context.Background(), signedToken); !errors.Is(err, errMissingEmail) {
		t.Fatalf("expected missing email error, got %v", err)
	}
}

func TestGoogleVerifierRejectsInvalidAudience(t *testing.T) {
	privateKey, jwksServer := newJWKSFixture(t)
	defer jwksServer.Close()

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"aud":   "unexpected-client",
		"iss":   "https://accounts.google.com",
		"sub":   "user-123",
		"email": "sensei@example.com",
		"exp":   now.Add(5 * time.Minute).Unix(),
		"iat":   now.Unix(),
	}
	signedToken := signTestToken(t, privateKey, claims)

	verifier, err := NewGoogleVerifier(GoogleVerifierConfig{
		Audience:       "test-client",
		JWKSURL:        jwksServer.URL + "/oauth2/v3/certs",
		AllowedIssuers: []string{"https://accounts.google.com"},
		HTTPClient:     jwksServer.Client(),
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}

	if _, err := verifier.Verify(context.Background(), signedToken); err == nil {
		t.Fatalf("expected verification to fail for mismatched audience")
	}
}

func TestNewGoogleVerifierRequiresAudienceAndJWKS(t *testing.T) {
	_, err := NewGoogleVerifier(GoogleVerifierConfig{
		Audience:       "",
		JWKSURL:        "https://example.com/jwks",
		AllowedIssuers: []string{"https://accounts.google.com"},
	})
	if !errors.Is(err, ErrInvalidVerifierConfig) {
		t.Fatalf("expected invalid verifier config error, got %v", err)
	}
	if !strings.Contains(err.Error(), errMissingAudienceConfig.Error()) {
		t.Fatalf("expected audience validation error to be reported, got %v", err)
	}

	_, err = NewGoogleVerifier(GoogleVerifierConfig{
		Audience:       "test-client",
		JWKSURL:        " ",
		AllowedIssuers: []string{"https://accounts.google.com"},
	})
	if !errors.Is(err, ErrInvalidVerifierConfig) {
		t.Fatalf("expected invalid verifier config error, got %v", err)
	}
	if !strings.Contains(err.Error(), errMissingJWKSURL.Error()) {
		t.Fatalf("expected jwks validation error to be reported, got %v", err)
	}
}

func TestNewGoogleVerifierRejectsEmptyIssuerList(t *testing.T) {
	_, err := NewGoogleVerifier(GoogleVerifierConfig{
		Audience:       "test-client",
		JWKSURL:        "https://example.com/jwks",
		AllowedIssuers: []string{"", "   "},
	})
	if !errors.Is(err, ErrInvalidVerifierConfig) {
		t.Fatalf("expected invalid verifier config error, got %v", err)
	}
	if !strings.Contains(err.Error(), errNoAllowedIssuers.Error()) {
		t.Fatalf("expected allowed issuers validation error to be reported, got %v", err)
	}
}

func newJWKSFixture(t *testing.T) (*rsa.PrivateKey, *httptest.Server) {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	publicKey := privateKey.PublicKey
	jwksResponse := map[string]any{
		"keys": []any{map[string]string{
			"kty": "RSA",
			"alg": "RS256",
			"kid": "test-key",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(publicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(publicKey.E)).Bytes()),
		}},
	}

	jwksServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(jwksResponse)
	}))
	return privateKey, jwksServer
}

func signTestToken(t *testing.T, privateKey *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = "test-key"
	signedToken, err := token.SignedString(privateKey)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signedToken
}

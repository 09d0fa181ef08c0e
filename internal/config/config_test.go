package config

import (
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	v := NewViper()
	v.Set("auth.signing_secret", "secret")
	v.Set("auth.admin_email", "sensei@example.com")
	v.Set("auth.google_client_id", "client-id")

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddress != "0.0.0.0:8080" {
		t.Fatalf("unexpected http address %q", cfg.HTTPAddress)
	}
	if cfg.DatabasePath != "renraku.db" {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("unexpected log level %q", cfg.LogLevel)
	}
	if cfg.TokenTTL != 30*time.Minute {
		t.Fatalf("unexpected token ttl %v", cfg.TokenTTL)
	}
	if cfg.GoogleJWKSURL == "" {
		t.Fatalf("expected a default jwks url")
	}
}

func TestLoadRejectsMissingRequiredValues(t *testing.T) {
	testCases := []struct {
		name  string
		unset string
	}{
		{name: "missing signing secret", unset: "auth.signing_secret"},
		{name: "missing admin email", unset: "auth.admin_email"},
		{name: "missing google client id", unset: "auth.google_client_id"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			v := NewViper()
			v.Set("auth.signing_secret", "secret")
			v.Set("auth.admin_email", "sensei@example.com")
			v.Set("auth.google_client_id", "client-id")
			v.Set(testCase.unset, "  ")

			if _, err := Load(v); err == nil {
				t.Fatalf("expected an error when %s is blank", testCase.unset)
			}
		})
	}
}

func TestLoadRejectsNonPositiveTokenTTL(t *testing.T) {
	v := NewViper()
	v.Set("auth.signing_secret", "secret")
	v.Set("auth.admin_email", "sensei@example.com")
	v.Set("auth.google_client_id", "client-id")
	v.Set("token.ttl_minutes", 0)

	if _, err := Load(v); err == nil {
		t.Fatalf("expected an error for a zero token ttl")
	}
}

func TestLoadReadsOverrides(t *testing.T) {
	v := NewViper()
	v.Set("auth.signing_secret", "secret")
	v.Set("auth.admin_email", "Sensei@Example.com")
	v.Set("auth.google_client_id", "client-id")
	v.Set("http.address", "127.0.0.1:9090")
	v.Set("database.path", "/tmp/notebook.db")
	v.Set("token.ttl_minutes", 120)

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddress != "127.0.0.1:9090" {
		t.Fatalf("unexpected http address %q", cfg.HTTPAddress)
	}
	if cfg.DatabasePath != "/tmp/notebook.db" {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath)
	}
	if cfg.TokenTTL != 2*time.Hour {
		t.Fatalf("unexpected token ttl %v", cfg.TokenTTL)
	}
}

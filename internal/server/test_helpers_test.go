package server

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/aozorasoft/renraku/backend/internal/auth"
	"github.com/aozorasoft/renraku/backend/internal/notebook"
	"github.com/aozorasoft/renraku/backend/internal/users"
	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	testSigningSecret = "test-secret"
	testAdminEmail    = "sensei@example.com"
	testViewerEmail   = "parent@example.com"
)

type stubVerifier struct {
	claims auth.GoogleClaims
	err    error
}

func (v *stubVerifier) Verify(_ context.Context, _ string) (auth.GoogleClaims, error) {
	if v.err != nil {
		return auth.GoogleClaims{}, v.err
	}
	return v.claims, nil
}

type testFixture struct {
	handler http.Handler
	db      *gorm.DB
	tokens  *auth.TokenIssuer
	feed    *StampFeed
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "server.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&notebook.DailyNote{}, &notebook.Acknowledgement{}, &users.Identity{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	notebookService, err := notebook.NewService(notebook.ServiceConfig{
		Database:   db,
		IDProvider: notebook.NewUUIDProvider(),
		Logger:     zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("failed to build notebook service: %v", err)
	}

	roleGate, err := users.NewRoleGate(testAdminEmail)
	if err != nil {
		t.Fatalf("failed to build role gate: %v", err)
	}

	tokens := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(testSigningSecret),
		Issuer:        "renraku-auth",
		Audience:      "renraku-api",
		TokenTTL:      time.Hour,
	})

	feed := NewStampFeed()
	handler, err := NewHTTPHandler(Dependencies{
		Verifier: &stubVerifier{claims: auth.GoogleClaims{
			Subject: "subject-1",
			Email:   testAdminEmail,
		}},
		TokenManager: tokens,
		RoleGate:     roleGate,
		Notebook:     notebookService,
		Feed:         feed,
		Logger:       zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("failed to build handler: %v", err)
	}

	return &testFixture{handler: handler, db: db, tokens: tokens, feed: feed}
}

func (f *testFixture) mintToken(t *testing.T, email string) string {
	t.Helper()
	token, _, err := f.tokens.IssueBackendToken(context.Background(), auth.GoogleClaims{
		Subject: "subject-" + email,
		Email:   email,
	})
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}
	return token
}

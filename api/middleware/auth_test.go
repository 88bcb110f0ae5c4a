package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgAuth "github.com/custconnect/custconnect-backend/pkg/auth"
	"github.com/custconnect/custconnect-backend/pkg/config"
	"github.com/custconnect/custconnect-backend/pkg/logger"
)

type allowAllSessions struct{ ok bool }

func (a allowAllSessions) HasSession(ctx context.Context, accessID string) (bool, error) {
	return a.ok, nil
}

func authTestJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "custconnect", ExpirationMinutes: 5}
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, userID uuid.UUID, roles []string) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Roles:  roles,
		JTI:    "jti-test",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthSeedsContext(t *testing.T) {
	cfg := authTestJWTConfig()
	userID := uuid.New()
	token := mintTestToken(t, cfg, userID, []string{"STUDENT", "CAFE_OWNER"})

	var gotUser uuid.UUID
	var gotRoles []string
	var gotAccessID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotRoles = RolesFromContext(r.Context())
		gotAccessID = AccessIDFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()

	Auth(cfg, allowAllSessions{ok: true}, logger.New(logger.Options{ServiceName: "test"}))(next).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if gotUser != userID {
		t.Fatalf("expected user id in context, got %s", gotUser)
	}
	if len(gotRoles) != 2 || gotRoles[1] != "CAFE_OWNER" {
		t.Fatalf("unexpected roles %v", gotRoles)
	}
	if gotAccessID != "jti-test" {
		t.Fatalf("unexpected access id %q", gotAccessID)
	}
}

func TestAuthRejectsMissingToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()

	Auth(authTestJWTConfig(), nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	cfg := authTestJWTConfig()
	token := mintTestToken(t, cfg, uuid.New(), []string{"STUDENT"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()

	Auth(cfg, allowAllSessions{ok: false}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

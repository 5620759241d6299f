package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/patientdex/patient-dex/internal/utils"
)

// fakeSessions validates exactly one token hash.
type fakeSessions struct {
	hash     string
	username string
}

func (f *fakeSessions) Validate(_ context.Context, tokenHash string) (string, error) {
	if tokenHash == f.hash {
		return f.username, nil
	}
	return "", sql.ErrNoRows
}

const testSecret = "test-secret"

func runGated(t *testing.T, sessions SessionValidator, authHeader string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	e := echo.New()
	var seen string
	h := SessionAuth(testSecret, sessions)(func(c echo.Context) error {
		seen = Username(c)
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/patients", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return rec, seen
}

func TestSessionAuthAllowsLiveSession(t *testing.T) {
	tok, err := utils.NewSessionToken(testSecret, "admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sessions := &fakeSessions{hash: utils.HashSessionRaw(tok.Raw), username: "admin"}

	rec, seen := runGated(t, sessions, "Bearer "+tok.Bearer)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seen != "admin" {
		t.Errorf("expected username=admin in context, got %q", seen)
	}
}

func TestSessionAuthRejectsMissingHeader(t *testing.T) {
	rec, _ := runGated(t, &fakeSessions{}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSessionAuthRejectsBadToken(t *testing.T) {
	rec, _ := runGated(t, &fakeSessions{}, "Bearer garbage")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSessionAuthRejectsRevokedSession(t *testing.T) {
	tok, err := utils.NewSessionToken(testSecret, "admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Validator knows no hashes: the session was revoked at logout.
	rec, _ := runGated(t, &fakeSessions{}, "Bearer "+tok.Bearer)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSessionAuthRejectsForeignSecret(t *testing.T) {
	tok, err := utils.NewSessionToken("other-secret", "admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sessions := &fakeSessions{hash: utils.HashSessionRaw(tok.Raw), username: "admin"}
	rec, _ := runGated(t, sessions, "Bearer "+tok.Bearer)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

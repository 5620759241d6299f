package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/patientdex/patient-dex/internal/repository"
	"github.com/patientdex/patient-dex/internal/utils"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// newJSONContext builds an Echo context around a JSON request body.
func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

// fakeUsers is an in-memory credential store: username -> password.
type fakeUsers struct {
	passwords map[string]string
}

func (f *fakeUsers) Authenticate(_ context.Context, username, password string) (bool, error) {
	stored, ok := f.passwords[username]
	if !ok {
		return false, nil // unknown username is not an error
	}
	return utils.VerifyPassword(utils.HashPassword(stored), password), nil
}

// fakeSessionWriter records created and revoked session hashes.
type fakeSessionWriter struct {
	created map[string]string // token hash -> username
	revoked map[string]bool
}

func newFakeSessionWriter() *fakeSessionWriter {
	return &fakeSessionWriter{created: map[string]string{}, revoked: map[string]bool{}}
}

func (f *fakeSessionWriter) Create(_ context.Context, username, tokenHash string) error {
	f.created[tokenHash] = username
	return nil
}

func (f *fakeSessionWriter) Revoke(_ context.Context, tokenHash string) error {
	f.revoked[tokenHash] = true
	return nil
}

func (f *fakeSessionWriter) RevokeAllForUser(_ context.Context, username string) error {
	for hash, u := range f.created {
		if u == username {
			f.revoked[hash] = true
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestLoginSeededAdmin(t *testing.T) {
	sessions := newFakeSessionWriter()
	h := NewAuthHandler("test-secret", &fakeUsers{passwords: map[string]string{"admin": "admin123"}}, sessions)

	c, rec := newJSONContext(http.MethodPost, "/v1/auth/login",
		`{"username":"admin","password":"admin123"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp loginResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Username != "admin" || resp.Token == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(sessions.created) != 1 {
		t.Fatalf("expected 1 session created, got %d", len(sessions.created))
	}

	// The bearer must resolve to the stored session hash.
	_, raw, err := utils.ParseSessionToken("test-secret", resp.Token)
	if err != nil {
		t.Fatalf("bearer does not parse: %v", err)
	}
	if sessions.created[utils.HashSessionRaw(raw)] != "admin" {
		t.Fatal("stored session hash does not match the issued token")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h := NewAuthHandler("test-secret", &fakeUsers{passwords: map[string]string{"admin": "admin123"}}, newFakeSessionWriter())

	c, rec := newJSONContext(http.MethodPost, "/v1/auth/login",
		`{"username":"admin","password":"wrong"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLoginUnknownUsername(t *testing.T) {
	h := NewAuthHandler("test-secret", &fakeUsers{passwords: map[string]string{}}, newFakeSessionWriter())

	c, rec := newJSONContext(http.MethodPost, "/v1/auth/login",
		`{"username":"nobody","password":"whatever"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("login must not fail for unknown usernames: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLoginMissingFields(t *testing.T) {
	h := NewAuthHandler("test-secret", &fakeUsers{}, newFakeSessionWriter())

	c, rec := newJSONContext(http.MethodPost, "/v1/auth/login", `{"username":"admin"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// CreateUser
// ---------------------------------------------------------------------------

// fakeAccounts rejects usernames it has already seen.
type fakeAccounts struct {
	nextID uint64
	taken  map[string]bool
}

func (f *fakeAccounts) Create(_ context.Context, username, password string) (uint64, error) {
	if f.taken == nil {
		f.taken = map[string]bool{}
	}
	if f.taken[username] {
		return 0, repository.ErrUsernameExists
	}
	f.taken[username] = true
	f.nextID++
	return f.nextID, nil
}

func TestCreateUser(t *testing.T) {
	h := NewAuthHandler("test-secret", &fakeUsers{}, newFakeSessionWriter())
	h.Accounts = &fakeAccounts{}

	c, rec := newJSONContext(http.MethodPost, "/v1/users",
		`{"username":"drsmith","password":"s3cret"}`)
	if err := h.CreateUser(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// Same username again collides.
	c, rec = newJSONContext(http.MethodPost, "/v1/users",
		`{"username":"drsmith","password":"other"}`)
	if err := h.CreateUser(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestCreateUserMissingFields(t *testing.T) {
	h := NewAuthHandler("test-secret", &fakeUsers{}, newFakeSessionWriter())
	h.Accounts = &fakeAccounts{}

	c, rec := newJSONContext(http.MethodPost, "/v1/users", `{"username":"x"}`)
	if err := h.CreateUser(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// Logout
// ---------------------------------------------------------------------------

func TestLogoutRevokesSession(t *testing.T) {
	sessions := newFakeSessionWriter()
	h := NewAuthHandler("test-secret", &fakeUsers{}, sessions)

	tok, err := utils.NewSessionToken("test-secret", "admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, rec := newJSONContext(http.MethodPost, "/v1/auth/logout", "")
	c.Request().Header.Set("Authorization", "Bearer "+tok.Bearer)
	if err := h.Logout(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if !sessions.revoked[utils.HashSessionRaw(tok.Raw)] {
		t.Fatal("expected the session hash to be revoked")
	}
}

func TestLogoutAllRevokesEverySession(t *testing.T) {
	sessions := newFakeSessionWriter()
	h := NewAuthHandler("test-secret", &fakeUsers{}, sessions)

	// Two live sessions for admin, one for someone else.
	_ = sessions.Create(context.Background(), "admin", "hash-a")
	_ = sessions.Create(context.Background(), "admin", "hash-b")
	_ = sessions.Create(context.Background(), "nurse", "hash-c")

	c, rec := newJSONContext(http.MethodPost, "/v1/auth/logout-all", "")
	c.Set("username", "admin")
	if err := h.LogoutAll(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if !sessions.revoked["hash-a"] || !sessions.revoked["hash-b"] {
		t.Error("expected both admin sessions revoked")
	}
	if sessions.revoked["hash-c"] {
		t.Error("another user's session must not be revoked")
	}
}

func TestLogoutWithoutBearer(t *testing.T) {
	h := NewAuthHandler("test-secret", &fakeUsers{}, newFakeSessionWriter())

	c, rec := newJSONContext(http.MethodPost, "/v1/auth/logout", "")
	if err := h.Logout(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

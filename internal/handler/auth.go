package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/patientdex/patient-dex/internal/metrics"
	"github.com/patientdex/patient-dex/internal/middleware"
	"github.com/patientdex/patient-dex/internal/repository"
	"github.com/patientdex/patient-dex/internal/utils"
)

// Authenticator answers login attempts against the credential store.
// An unknown username yields (false, nil), never an error.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (bool, error)
}

// SessionWriter creates and revokes login sessions. The repository's
// SessionRepo satisfies this.
type SessionWriter interface {
	Create(ctx context.Context, username, tokenHash string) error
	Revoke(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, username string) error
}

// UserCreator adds staff accounts. The repository's UserRepo
// satisfies this.
type UserCreator interface {
	Create(ctx context.Context, username, password string) (uint64, error)
}

// AuthHandler bundles dependencies for the login/logout and staff
// account endpoints.
type AuthHandler struct {
	Secret   string
	Users    Authenticator
	Sessions SessionWriter
	Accounts UserCreator
}

func NewAuthHandler(secret string, users Authenticator, sessions SessionWriter) *AuthHandler {
	return &AuthHandler{Secret: secret, Users: users, Sessions: sessions}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResp struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

// Login: verify credentials and open a session. The returned bearer
// token is valid until logout; there is no timeout-based expiry.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ok, err := h.Users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ok {
		metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	tok, err := utils.NewSessionToken(h.Secret, req.Username)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	if err := h.Sessions.Create(ctx, req.Username, utils.HashSessionRaw(tok.Raw)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save session failed"})
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, loginResp{Username: req.Username, Token: tok.Bearer})
}

// Logout: revoke the caller's session. The handler parses the bearer
// itself so the route does not need the session middleware; logging
// out an already-revoked session still returns 204.
func (h *AuthHandler) Logout(c echo.Context) error {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	_, key, err := utils.ParseSessionToken(h.Secret, strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sessions.Revoke(ctx, utils.HashSessionRaw(key)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// LogoutAll revokes every active session of the caller (protected
// route), including the one that made the request.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sessions.RevokeAllForUser(ctx, middleware.Username(c)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated identity (protected route).
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"username": middleware.Username(c)})
}

type createUserReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateUser adds a staff account (protected route). Any logged-in
// user may add accounts; there are no roles.
func (h *AuthHandler) CreateUser(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Accounts.Create(ctx, req.Username, req.Password)
	if err != nil {
		if err == repository.ErrUsernameExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "username": req.Username})
}

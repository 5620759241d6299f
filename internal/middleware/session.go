package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/patientdex/patient-dex/internal/utils"
)

// SessionValidator checks that a session identified by its token hash
// is still active and returns the username it belongs to. The
// repository's SessionRepo satisfies this; tests substitute fakes.
type SessionValidator interface {
	Validate(ctx context.Context, tokenHash string) (string, error)
}

// usernameKey is the context key under which the authenticated
// username is stored for handlers.
const usernameKey = "username"

// SessionAuth returns an Echo middleware that gates access behind a
// live login session. It validates the bearer JWT's signature,
// extracts the session key and confirms the server-side session has
// not been revoked. The authenticated username is injected into the
// request context for handlers via Username().
func SessionAuth(secret string, sessions SessionValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			_, key, err := utils.ParseSessionToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			// The session row is the source of truth: a valid signature
			// with a revoked session is still a logged-out caller.
			username, err := sessions.Validate(ctx, utils.HashSessionRaw(key))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session revoked or unknown"})
			}

			c.Set(usernameKey, username)
			return next(c)
		}
	}
}

// Username returns the authenticated username stored by SessionAuth,
// or "" when the request is unauthenticated.
func Username(c echo.Context) string {
	if v, ok := c.Get(usernameKey).(string); ok {
		return v
	}
	return ""
}

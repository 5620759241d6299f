package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/patientdex/patient-dex/internal/config"
	"github.com/patientdex/patient-dex/internal/metrics"
)

// LoginRateLimit returns a fixed-window rate limiter keyed by client
// IP, backed by Redis. It is meant for the login endpoint only. When
// the limiter is disabled, Redis is unavailable or a Redis call
// fails, requests pass through: losing rate limiting must never take
// logins down with it.
func LoginRateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := cfg.Prefix + ":" + c.RealIP()
			ctx := c.Request().Context()

			n, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				return next(c)
			}
			if n == 1 {
				// First hit opens the window.
				_ = rdb.Expire(ctx, key, cfg.Window).Err()
			}
			if n > int64(cfg.Limit) {
				retry := rdb.TTL(ctx, key).Val()
				if retry > 0 {
					c.Response().Header().Set("Retry-After",
						strconv.Itoa(int(retry.Seconds())))
				}
				metrics.LoginAttemptsTotal.WithLabelValues("rate_limited").Inc()
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many login attempts"})
			}
			return next(c)
		}
	}
}

package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/patientdex/patient-dex/internal/config"
	"github.com/patientdex/patient-dex/internal/handler"
	"github.com/patientdex/patient-dex/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication:
// the health check and the Prometheus metrics endpoint.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers the login and logout endpoints under
// /v1/auth. Login is rate limited per client IP; logout parses its
// own bearer so neither route sits behind the session middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, rl config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login, middleware.LoginRateLimit(rl, rdb))
	g.POST("/logout", a.Logout)
}

// RegisterAPI registers every login-gated endpoint under /v1. The
// session middleware is the access gate: all patient, visit, document
// and report operations require a live session. Report reads
// additionally pass through the Redis response cache.
func RegisterAPI(
	e *echo.Echo,
	secret string,
	sessions middleware.SessionValidator,
	a *handler.AuthHandler,
	p *handler.PatientHandler,
	v *handler.VisitHandler,
	r *handler.ReportHandler,
	cache config.CacheConfig,
	rdb *redis.Client,
) {
	api := e.Group("/v1")
	api.Use(middleware.SessionAuth(secret, sessions))

	api.GET("/me", a.Me)
	api.POST("/auth/logout-all", a.LogoutAll)
	api.POST("/users", a.CreateUser)
	api.GET("/dashboard", r.Dashboard)

	// Patient registry
	api.GET("/patients", p.List)
	api.POST("/patients", p.Register)
	api.GET("/patients/:id", p.Get)
	api.PATCH("/patients/:id/status", p.UpdateStatus)
	api.DELETE("/patients/:id", p.Delete)

	// Visit ledger (append-only: no update or delete routes)
	api.GET("/patients/:id/visits", v.History)
	api.POST("/patients/:id/visits", v.Add)

	// Document attachments
	api.GET("/visits/:id/documents", v.ListDocuments)
	api.POST("/visits/:id/documents", v.Attach)
	api.GET("/documents/:id", v.Download)

	// Reports
	reports := api.Group("/reports", middleware.ReportCache(cache, rdb))
	reports.GET("/monthly", r.Monthly)
	reports.GET("/tags", r.Tags)
	reports.GET("/life-status", r.LifeStatus)
}

package middleware

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/patientdex/patient-dex/internal/metrics"
)

// RequestMetrics counts every HTTP request by method, route template
// and response status.
func RequestMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			status := c.Response().Status
			var he *echo.HTTPError
			if errors.As(err, &he) {
				status = he.Code
			}
			metrics.HTTPRequestsTotal.WithLabelValues(
				c.Request().Method, c.Path(), strconv.Itoa(status)).Inc()
			return err
		}
	}
}

package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"bizmanager/internal/observability/metrics"

	"github.com/labstack/echo/v4"
)

// Metrics records request counts and latency per route template.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				} else if status < http.StatusBadRequest {
					status = http.StatusInternalServerError
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.ObserveHTTPRequest(c.Request().Method, route, strconv.Itoa(status), time.Since(start))
			return err
		}
	}
}

package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bizmanager/internal/common"

	"github.com/labstack/echo/v4"
)

// AuditMiddleware writes an audit record for every state-changing request.
type AuditMiddleware struct {
	logger *slog.Logger
}

func NewAuditMiddleware(logger *slog.Logger) *AuditMiddleware {
	return &AuditMiddleware{logger: logger.With("component", "audit")}
}

func (m *AuditMiddleware) AuditLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			method := c.Request().Method
			if m.shouldSkipLogging(method, c.Path()) {
				return err
			}

			ctx := c.Request().Context()
			status := c.Response().Status
			var he *echo.HTTPError
			if errors.As(err, &he) {
				status = he.Code
			}
			subject, _ := common.GetIdentityRefFromContext(ctx)

			attrs := []any{
				"method", method,
				"path", c.Path(),
				"uri", c.Request().RequestURI,
				"status", status,
				"subject", subject,
				"ip", c.RealIP(),
				"latency_ms", time.Since(start).Milliseconds(),
			}
			if err != nil {
				attrs = append(attrs, "error", err.Error())
			}

			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			m.logger.Log(ctx, level, "audit", attrs...)
			return err
		}
	}
}

// shouldSkipLogging leaves reads and infrastructure endpoints out of the
// audit trail.
func (m *AuditMiddleware) shouldSkipLogging(method, path string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	for _, prefix := range []string{"/health", "/metrics", "/swagger"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

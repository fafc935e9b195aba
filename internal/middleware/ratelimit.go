package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"bizmanager/internal/common"

	"github.com/labstack/echo/v4"
)

type RateLimiter interface {
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit caps requests per caller within a fixed window. The caller is
// the token subject when present, otherwise the client IP. It fails open
// when the limiter is unavailable or nil.
func RateLimit(limiter RateLimiter, scope string, limit int, window time.Duration, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if limiter == nil || limit <= 0 {
				return next(c)
			}
			ctx := c.Request().Context()
			caller, ok := common.GetIdentityRefFromContext(ctx)
			if !ok {
				caller = c.RealIP()
			}

			limited, err := limiter.IsRateLimited(ctx, scope+":"+caller, limit, window)
			if err != nil {
				logger.WarnContext(ctx, "rate limit check failed", "scope", scope, "error", err)
				return next(c)
			}
			if limited {
				return c.JSON(http.StatusTooManyRequests,
					common.CreateErrorResponse("RATE_LIMITED", "Too many requests", nil))
			}
			return next(c)
		}
	}
}

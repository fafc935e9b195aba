package middleware

import (
	"log/slog"
	"net/http"

	"bizmanager/internal/common"
	"bizmanager/internal/services"

	"github.com/labstack/echo/v4"
)

type RBACMiddleware struct {
	rbacService services.RBACService
	logger      *slog.Logger
}

func NewRBACMiddleware(rbacService services.RBACService, logger *slog.Logger) *RBACMiddleware {
	return &RBACMiddleware{
		rbacService: rbacService,
		logger:      logger,
	}
}

// RequirePermission rejects callers whose roles do not grant permission.
// It must run after JWTMiddleware.
func (m *RBACMiddleware) RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			ref, ok := common.GetIdentityRefFromContext(ctx)
			if !ok {
				return common.SendUnauthorizedError(c)
			}

			hasPermission, err := m.rbacService.UserHasPermission(ctx, ref, permission)
			if err != nil {
				m.logger.ErrorContext(ctx, "permission check failed", "permission", permission, "error", err)
				return c.JSON(http.StatusInternalServerError,
					common.CreateErrorResponse("SERVER_ERROR", "Error checking permission", nil))
			}
			if !hasPermission {
				return c.JSON(http.StatusForbidden,
					common.CreateErrorResponse("FORBIDDEN", "Insufficient permissions", map[string]string{"required": permission}))
			}

			return next(c)
		}
	}
}

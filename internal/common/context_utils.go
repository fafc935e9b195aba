package common

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"bizmanager/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	IdentityRefKey contextKey = "identity_ref"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// SendValidationError sends a validation error response
func SendValidationError(c echo.Context, field, message string) error {
	details := map[string]string{
		field: message,
	}
	return c.JSON(http.StatusBadRequest, CreateErrorResponse("VALIDATION_ERROR", "Validation failed", details))
}

// SendClientError sends a client error response
func SendClientError(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, CreateErrorResponse("CLIENT_ERROR", message, nil))
}

// SendUnauthorizedError sends an unauthorized error response
func SendUnauthorizedError(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, CreateErrorResponse("UNAUTHORIZED", "Unauthorized access", nil))
}

// SendError writes err using the status and code of its kind. Server-side
// failures never echo internal details back to the caller.
func SendError(c echo.Context, err error) error {
	var e *models.Error
	if !errors.As(err, &e) {
		return c.JSON(http.StatusInternalServerError, CreateErrorResponse("SERVER_ERROR", "Internal server error", nil))
	}

	switch e.Kind {
	case models.KindValidationFailed:
		details := map[string]string{}
		if e.Field != "" {
			details[e.Field] = e.Message
		}
		return c.JSON(http.StatusBadRequest, CreateErrorResponse("VALIDATION_ERROR", "Validation failed", details))
	case models.KindNotFound:
		return c.JSON(http.StatusNotFound, CreateErrorResponse("NOT_FOUND", e.Message, nil))
	case models.KindIdentityProviderFailed:
		return c.JSON(http.StatusBadGateway, CreateErrorResponse("IDENTITY_PROVIDER_ERROR", "Identity provider update failed", nil))
	case models.KindRollbackFailed:
		return c.JSON(http.StatusInternalServerError, CreateErrorResponse("ROLLBACK_FAILED",
			"Update failed and could not be reverted; support has been notified", nil))
	case models.KindPersistenceFailed:
		return c.JSON(http.StatusInternalServerError, CreateErrorResponse("PERSISTENCE_ERROR", "Failed to save changes", nil))
	default:
		return c.JSON(http.StatusInternalServerError, CreateErrorResponse("SERVER_ERROR", "Internal server error", nil))
	}
}

// ValidateUUID parses a path or body identifier.
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, models.NewValidationError(fieldName, "is required")
	}
	id, err := uuid.Parse(idStr)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, models.NewValidationError(fieldName, "must be a valid UUID")
	}
	return id, nil
}

func WithIdentityRef(ctx context.Context, ref string) context.Context {
	return context.WithValue(ctx, IdentityRefKey, ref)
}

// GetIdentityRefFromContext returns the authenticated caller's identity
// provider reference (the token subject).
func GetIdentityRefFromContext(ctx context.Context) (string, bool) {
	ref, ok := ctx.Value(IdentityRefKey).(string)
	return ref, ok && ref != ""
}

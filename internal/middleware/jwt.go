package middleware

import (
	"net/http"
	"time"

	"bizmanager/internal/common"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// NewJWKS fetches the identity provider's signing keys and keeps them
// refreshed in the background. Call EndBackground on shutdown.
func NewJWKS(jwksURL string) (*keyfunc.JWKS, error) {
	return keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
	})
}

// JWTMiddleware validates the bearer token against issuer and audience and
// stores its subject as the caller's identity reference. validMethods
// defaults to RS256.
func JWTMiddleware(keyFunc jwt.Keyfunc, issuer, audience string, validMethods ...string) echo.MiddlewareFunc {
	if len(validMethods) == 0 {
		validMethods = []string{"RS256"}
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods(validMethods),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)

	validate := echojwt.WithConfig(echojwt.Config{
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			claims := jwt.MapClaims{}
			token, err := parser.ParseWithClaims(auth, claims, keyFunc)
			if err != nil {
				return nil, err
			}
			return token, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return common.SendUnauthorizedError(c)
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return validate(func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return common.SendUnauthorizedError(c)
			}
			sub, err := token.Claims.GetSubject()
			if err != nil || sub == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing subject in token")
			}

			ctx := common.WithIdentityRef(c.Request().Context(), sub)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		})
	}
}

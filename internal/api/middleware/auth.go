package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/order-management/internal/core/domain"
	"github.com/99minutos/order-management/internal/core/ports"
)

// ClaimsKey is the echo.Context key holding the verified *domain.AuthClaims.
const ClaimsKey = "auth_claims"

// Auth requires a valid bearer token and injects its claims into context.
func Auth(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return domain.ErrMissingClaims
			}
			if err := authenticate(c, verifier, authHeader); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// OptionalAuth injects claims when a bearer token is present and passes
// anonymous requests through. A present but invalid token is rejected.
func OptionalAuth(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return next(c)
			}
			if err := authenticate(c, verifier, authHeader); err != nil {
				return err
			}
			return next(c)
		}
	}
}

func authenticate(c echo.Context, verifier ports.TokenVerifier, authHeader string) error {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return domain.ErrInvalidToken
	}

	claims, err := verifier.Verify(strings.TrimSpace(parts[1]))
	if err != nil {
		return err
	}

	c.Set(ClaimsKey, claims)
	return nil
}

// ClaimsFrom returns the claims injected by Auth or OptionalAuth, or nil.
func ClaimsFrom(c echo.Context) *domain.AuthClaims {
	claims, _ := c.Get(ClaimsKey).(*domain.AuthClaims)
	return claims
}

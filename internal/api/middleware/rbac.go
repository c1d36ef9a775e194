package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/order-management/internal/core/domain"
)

// RequireRole enforces role-based access control on top of Auth.
func RequireRole(role domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFrom(c)
			if claims == nil {
				return domain.ErrMissingClaims
			}
			if !domain.Authorize(claims, role) {
				return domain.Forbiddenf("%s role required", role)
			}
			return next(c)
		}
	}
}

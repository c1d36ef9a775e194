package handler

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/order-management/internal/api/middleware"
	"github.com/99minutos/order-management/internal/core/domain"
	"github.com/99minutos/order-management/internal/core/ports"
)

// ctxClaims returns the claims injected by the Auth middleware. Their
// absence means a route was mounted without Auth.
func ctxClaims(c echo.Context) (*domain.AuthClaims, error) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		return nil, domain.ErrMissingClaims
	}
	return claims, nil
}

// pathID reads the numeric :id path parameter.
func pathID(c echo.Context) (int64, error) {
	var id int64
	err := echo.PathParamsBinder(c).MustInt64("id", &id).BindError()
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("id", "must be a positive integer")
	}
	return id, nil
}

// pageQuery reads the 1-based ?page= and ?size= parameters. Missing values
// are left zero and defaulted by the services.
func pageQuery(c echo.Context) (ports.Page, error) {
	var p ports.Page
	err := echo.QueryParamsBinder(c).
		Int("page", &p.Number).
		Int("size", &p.Size).
		BindError()
	if err != nil {
		var be *echo.BindingError
		if errors.As(err, &be) {
			return p, domain.NewValidationError(be.Field, "must be an integer")
		}
		return p, err
	}
	return p, nil
}

// searchQuery reads the mandatory ?query= parameter.
func searchQuery(c echo.Context) (string, error) {
	q := strings.TrimSpace(c.QueryParam("query"))
	if q == "" {
		return "", domain.NewValidationError("query", "is required")
	}
	return q, nil
}

// bindAndValidate decodes the request body into req and runs the validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.NewValidationError("body", "malformed request payload")
	}
	return c.Validate(req)
}

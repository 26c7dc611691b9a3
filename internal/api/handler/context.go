package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/halolight/platform/internal/api/middleware"
	"github.com/halolight/platform/internal/core/domain"
)

// ctxIdentity extracts the caller identity injected by the Auth middleware.
// Its absence on a protected route means the middleware chain is
// misconfigured; fail closed with 401.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	identity, ok := middleware.IdentityFrom(c.Request().Context())
	if !ok {
		return domain.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return identity, nil
}

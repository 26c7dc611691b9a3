package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/halolight/platform/internal/api/metrics"
	"github.com/halolight/platform/internal/core/domain"
	"github.com/halolight/platform/internal/core/ports"
)

// Authorize gates the route behind a single required capability. It must run
// after Auth; a request without an identity in context is treated as
// unauthenticated, not forbidden. Every decision is logged and counted;
// denial is the middleware's only other effect.
func Authorize(resolver ports.CapabilityResolver, required domain.Capability, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			identity, ok := IdentityFrom(ctx)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}

			allowed, err := resolver.HasCapability(ctx, identity.UserID, required)
			if err != nil {
				return err
			}
			if !allowed {
				metrics.AuthzDecisionsTotal.WithLabelValues(required.String(), "deny").Inc()
				log.Info().
					Str("user_id", identity.UserID).
					Str("capability", required.String()).
					Str("path", c.Request().URL.Path).
					Str("result", "deny").
					Msg("authorization denied")
				return domain.ErrForbidden
			}

			metrics.AuthzDecisionsTotal.WithLabelValues(required.String(), "allow").Inc()
			log.Debug().
				Str("user_id", identity.UserID).
				Str("capability", required.String()).
				Str("result", "allow").
				Msg("authorization granted")
			return next(c)
		}
	}
}

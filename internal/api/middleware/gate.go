package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/postboard/blog-api/internal/core/domain"
	"github.com/postboard/blog-api/internal/core/service"
	"github.com/postboard/blog-api/internal/pkg/metrics"
)

type check func(*domain.Account) (*domain.Account, error)

// RequireActive rejects inactive accounts. Must run after Session.
func RequireActive() echo.MiddlewareFunc {
	return gate("active", service.RequireActive)
}

// RequireVerified rejects inactive or unverified accounts, in that order.
func RequireVerified() echo.MiddlewareFunc {
	return gate("verified", service.RequireVerified)
}

// RequireSuperuser rejects non-superusers regardless of the other flags.
func RequireSuperuser() echo.MiddlewareFunc {
	return gate("superuser", service.RequireSuperuser)
}

func gate(name string, fn check) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, err := fn(Account(c)); err != nil {
				metrics.GateDenialsTotal.WithLabelValues(name).Inc()
				return err
			}
			return next(c)
		}
	}
}

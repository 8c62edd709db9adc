package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-service/internal/api/metrics"
	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// RBAC enforces role-based access control on top of Auth.
func RBAC(guard ports.AccessGuard, allowedRoles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, err := guard.RequireRole(Caller(c), allowedRoles...); err != nil {
				metrics.AccessDeniedTotal.WithLabelValues("forbidden").Inc()
				return err
			}
			return next(c)
		}
	}
}

package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-service/internal/api/metrics"
	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

const (
	callerKey   = "caller"
	usernameKey = "username"
	roleKey     = "role"
)

// Auth resolves the bearer token through guard and injects the caller into
// the context. Failures are returned to the HTTP error handler.
func Auth(guard ports.AccessGuard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				metrics.AccessDeniedTotal.WithLabelValues("missing_token").Inc()
				return err
			}

			caller, err := guard.ResolveCaller(c.Request().Context(), token)
			if err != nil {
				metrics.AccessDeniedTotal.WithLabelValues(denyReason(err)).Inc()
				return err
			}

			SetCaller(c, caller)
			return next(c)
		}
	}
}

// Caller returns the user injected by Auth, or nil when the request was not
// authenticated.
func Caller(c echo.Context) *domain.User {
	u, _ := c.Get(callerKey).(*domain.User)
	return u
}

// SetCaller stores the authenticated user on the request context.
func SetCaller(c echo.Context, u *domain.User) {
	c.Set(callerKey, u)
	c.Set(usernameKey, u.Username)
	c.Set(roleKey, string(u.Role))
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

func denyReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, domain.ErrTokenInvalid):
		return "token_invalid"
	case errors.Is(err, domain.ErrUserNotFound):
		return "user_not_found"
	default:
		return "error"
	}
}

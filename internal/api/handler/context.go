package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-service/internal/api/middleware"
	"github.com/99minutos/auth-service/internal/core/domain"
)

// ctxCaller returns the caller injected by the Auth middleware. Its absence
// means the route was mounted without Auth and is rejected with 401.
func ctxCaller(c echo.Context) (*domain.User, error) {
	caller := middleware.Caller(c)
	if caller == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	return caller, nil
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/service"
)

type mapUserStore map[string]*domain.User

func (m mapUserStore) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	u, ok := m[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (m mapUserStore) Exists(_ context.Context, username string) (bool, error) {
	_, ok := m[username]
	return ok, nil
}

func (m mapUserStore) Insert(_ context.Context, u *domain.User) error {
	m[u.Username] = u
	return nil
}

func newGuard(t *testing.T) (*service.AccessGuard, *service.TokenService) {
	t.Helper()
	tokens, err := service.NewTokenService(service.TokenConfig{Secret: "secret"})
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	store := mapUserStore{"alice": {Username: "alice", Role: domain.RoleAdmin}}
	return service.NewAccessGuard(tokens, store, zerolog.Nop()), tokens
}

func runAuth(t *testing.T, header string) (bool, echo.Context, error) {
	t.Helper()
	guard, _ := newGuard(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	called := false
	err := Auth(guard)(func(c echo.Context) error {
		called = true
		return nil
	})(c)
	return called, c, err
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, tokens := newGuard(t)
	tok, err := tokens.Issue("alice", domain.RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	called, c, err := runAuth(t, "Bearer "+tok.Token)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if caller := Caller(c); caller == nil || caller.Username != "alice" {
		t.Fatalf("caller not set: %+v", caller)
	}
	if c.Get("username") != "alice" || c.Get("role") != "admin" {
		t.Fatalf("claims not set")
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	called, _, err := runAuth(t, "")
	assertUnauthorizedHTTPError(t, called, err)
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	for _, h := range []string{"Token abc", "Bearer", "Bearer   "} {
		called, _, err := runAuth(t, h)
		assertUnauthorizedHTTPError(t, called, err)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	called, _, err := runAuth(t, "Bearer not-a-token")
	if called {
		t.Fatalf("should not reach next")
	}
	if !errors.Is(err, domain.ErrUnauthenticated) || !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected unauthenticated invalid token, got %v", err)
	}
}

func TestAuthMiddleware_UnknownUser(t *testing.T) {
	_, tokens := newGuard(t)
	tok, _ := tokens.Issue("ghost", domain.RoleCustomer, time.Hour)

	called, _, err := runAuth(t, "bearer "+tok.Token)
	if called {
		t.Fatalf("should not reach next")
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func assertUnauthorizedHTTPError(t *testing.T, called bool, err error) {
	t.Helper()
	if called {
		t.Fatalf("should not reach next")
	}
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 HTTPError, got %v", err)
	}
}

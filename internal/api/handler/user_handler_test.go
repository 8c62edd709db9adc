package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-service/internal/api/middleware"
	"github.com/99minutos/auth-service/internal/core/domain"
)

type stubUserStore struct {
	users map[string]*domain.User
}

func (s *stubUserStore) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	u, ok := s.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *stubUserStore) Exists(_ context.Context, username string) (bool, error) {
	_, ok := s.users[username]
	return ok, nil
}

func (s *stubUserStore) Insert(context.Context, *domain.User) error {
	return errors.New("not supported")
}

func TestUserHandler_Me(t *testing.T) {
	e := newTestEcho()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/auth/me", nil), rec)
	middleware.SetCaller(c, &domain.User{Username: "alice", Role: domain.RoleCustomer})

	if err := NewUserHandler(&stubUserStore{}).Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if resp := decodeBody(t, rec); resp["username"] != "alice" || resp["role"] != "customer" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestUserHandler_Me_WithoutCaller(t *testing.T) {
	e := newTestEcho()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/auth/me", nil), httptest.NewRecorder())

	err := NewUserHandler(&stubUserStore{}).Me(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestUserHandler_Get(t *testing.T) {
	store := &stubUserStore{users: map[string]*domain.User{
		"alice": {Username: "alice", Role: domain.RoleCustomer},
	}}
	h := NewUserHandler(store)

	for _, tc := range []struct {
		username string
		code     int
	}{
		{"alice", http.StatusOK},
		{"ghost", http.StatusNotFound},
	} {
		e := newTestEcho()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		c.SetParamNames("username")
		c.SetParamValues(tc.username)
		middleware.SetCaller(c, &domain.User{Username: "root", Role: domain.RoleAdmin})

		if err := h.Get(c); err != nil {
			t.Fatalf("%s: handler error: %v", tc.username, err)
		}
		if rec.Code != tc.code {
			t.Fatalf("%s: expected %d, got %d", tc.username, tc.code, rec.Code)
		}
	}
}

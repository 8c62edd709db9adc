package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-service/internal/core/domain"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, username, password, role string) (*domain.User, error)
	loginFn    func(ctx context.Context, username, password string) (*domain.AccessToken, *domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, username, password, role string) (*domain.User, error) {
	return s.registerFn(ctx, username, password, role)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (*domain.AccessToken, *domain.User, error) {
	return s.loginFn(ctx, username, password)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, username, password, role string) (*domain.User, error) {
			if username != "alice" || password != "pw123" || role != "customer" {
				t.Fatalf("unexpected args: %s %s %s", username, password, role)
			}
			return &domain.User{Username: username, PasswordHash: "$2a$hash", Role: domain.RoleCustomer}, nil
		},
	}
	handler := NewAuthHandler(stub)

	req := jsonRequest(http.MethodPost, "/auth/register", `{"username":"alice","password":"pw123","role":"customer"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	resp := decodeBody(t, rec)
	user, ok := resp["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user in response")
	}
	if user["username"] != "alice" || user["role"] != "customer" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if strings.Contains(rec.Body.String(), "$2a$hash") {
		t.Fatalf("password hash leaked in response: %s", rec.Body.String())
	}
}

func TestAuthHandler_Register_Errors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		msg  string
	}{
		{"duplicate", domain.ErrUserExists, "Username already exists"},
		{"role", domain.ErrInvalidRole, "Invalid role"},
		{"input", domain.ErrInvalidInput, "invalid input"},
	}

	for _, tc := range cases {
		e := newTestEcho()
		handler := NewAuthHandler(&stubAuthService{
			registerFn: func(ctx context.Context, username, password, role string) (*domain.User, error) {
				return nil, tc.err
			},
		})

		rec := httptest.NewRecorder()
		c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", `{"username":"bob","password":"x"}`), rec)

		if err := handler.Register(c); err != nil {
			t.Fatalf("%s: handler error: %v", tc.name, err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rec.Code)
		}
		if got := decodeBody(t, rec)["error"]; got != tc.msg {
			t.Fatalf("%s: expected %q, got %v", tc.name, tc.msg, got)
		}
	}
}

func TestAuthHandler_Register_StoreFailurePropagates(t *testing.T) {
	e := newTestEcho()
	handler := NewAuthHandler(&stubAuthService{
		registerFn: func(ctx context.Context, username, password, role string) (*domain.User, error) {
			return nil, domain.ErrStoreUnavailable
		},
	})

	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", `{"username":"bob","password":"x"}`), httptest.NewRecorder())
	if err := handler.Register(c); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	bodies := []string{
		"not-json",
		`{"username":"","password":"x"}`,
		`{"username":"bob","password":"x","role":"root"}`,
	}

	for _, body := range bodies {
		e := newTestEcho()
		handler := NewAuthHandler(&stubAuthService{
			registerFn: func(ctx context.Context, username, password, role string) (*domain.User, error) {
				t.Fatalf("should not be called")
				return nil, nil
			},
		})

		rec := httptest.NewRecorder()
		c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", body), rec)
		_ = handler.Register(c)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newTestEcho()
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (*domain.AccessToken, *domain.User, error) {
			if username != "alice" || password != "pw123" {
				t.Fatalf("unexpected args: %s %s", username, password)
			}
			return &domain.AccessToken{Token: "token123", Subject: "alice", Role: domain.RoleCustomer, ExpiresAt: expires},
				&domain.User{Username: "alice", Role: domain.RoleCustomer}, nil
		},
	}
	handler := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/login", `{"username":"alice","password":"pw123"}`), rec)

	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	resp := decodeBody(t, rec)
	if resp["access_token"] != "token123" || resp["token_type"] != "bearer" {
		t.Fatalf("unexpected token payload: %+v", resp)
	}
	if exp, _ := resp["expires_in"].(float64); exp <= 0 || exp > 3600 {
		t.Fatalf("unexpected expires_in: %v", resp["expires_in"])
	}
}

func TestAuthHandler_Login_FormBody(t *testing.T) {
	e := newTestEcho()
	handler := NewAuthHandler(&stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (*domain.AccessToken, *domain.User, error) {
			if username != "alice" || password != "pw123" {
				t.Fatalf("unexpected args: %s %s", username, password)
			}
			return &domain.AccessToken{Token: "t", Role: domain.RoleCustomer, ExpiresAt: time.Now().Add(time.Hour)}, nil, nil
		},
	})

	form := url.Values{"username": {"alice"}, "password": {"pw123"}, "grant_type": {"password"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()

	if err := handler.Login(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newTestEcho()
	handler := NewAuthHandler(&stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (*domain.AccessToken, *domain.User, error) {
			return nil, nil, domain.ErrInvalidCredentials
		},
	})

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/login", `{"username":"alice","password":"bad"}`), rec)
	_ = handler.Login(c)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec.Header().Get(echo.HeaderWWWAuthenticate) != "Bearer" {
		t.Fatalf("expected WWW-Authenticate header")
	}
	if got := decodeBody(t, rec)["error"]; got != "Invalid username or password" {
		t.Fatalf("unexpected message: %v", got)
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	e := newTestEcho()
	handler := NewAuthHandler(&stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (*domain.AccessToken, *domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil, nil
		},
	})

	for _, body := range []string{"{", `{"username":"alice"}`} {
		rec := httptest.NewRecorder()
		_ = handler.Login(e.NewContext(jsonRequest(http.MethodPost, "/auth/login", body), rec))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

package ports

import (
	"context"
	"time"

	"github.com/99minutos/auth-service/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, username, password, role string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*domain.AccessToken, *domain.User, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type TokenService interface {
	Issue(subject string, role domain.Role, ttl time.Duration) (*domain.AccessToken, error)
	Validate(token string) (*domain.TokenClaims, error)
}

// AccessGuard resolves callers from bearer tokens and enforces role policy.
type AccessGuard interface {
	ResolveCaller(ctx context.Context, token string) (*domain.User, error)
	RequireRole(caller *domain.User, roles ...domain.Role) (*domain.User, error)
}

// Pinger is implemented by stores that can report backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

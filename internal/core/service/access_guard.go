package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// AccessGuard resolves the caller behind a bearer token and enforces roles.
//
// The role checked by RequireRole is the one on the store record re-read for
// every request, not the role embedded in the token, so promotions and
// demotions apply immediately.
type AccessGuard struct {
	tokens ports.TokenService
	store  ports.UserStore
	logger zerolog.Logger
}

func NewAccessGuard(tokens ports.TokenService, store ports.UserStore, logger zerolog.Logger) *AccessGuard {
	return &AccessGuard{tokens: tokens, store: store, logger: logger}
}

// ResolveCaller validates token and loads its subject. Every failure wraps
// domain.ErrUnauthenticated together with the underlying cause.
func (g *AccessGuard) ResolveCaller(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, domain.ErrTokenInvalid)
	}

	claims, err := g.tokens.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}

	user, err := g.store.FindByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
		}
		return nil, err
	}

	if user.Role != claims.Role {
		g.logger.Debug().
			Str("username", user.Username).
			Str("token_role", string(claims.Role)).
			Str("current_role", string(user.Role)).
			Msg("token role is stale")
	}

	return user, nil
}

// RequireRole passes caller through when its role is one of roles.
func (g *AccessGuard) RequireRole(caller *domain.User, roles ...domain.Role) (*domain.User, error) {
	if caller == nil {
		return nil, domain.ErrUnauthenticated
	}
	if !caller.HasRole(roles...) {
		return nil, domain.ErrForbidden
	}
	return caller, nil
}

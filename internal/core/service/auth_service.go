package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// AuthService implements registration and login.
type AuthService struct {
	store         ports.UserStore
	hasher        ports.PasswordHasher
	tokens        ports.TokenService
	authenticator *Authenticator
	logger        zerolog.Logger
	now           func() time.Time
}

func NewAuthService(store ports.UserStore, hasher ports.PasswordHasher, tokens ports.TokenService, logger zerolog.Logger) *AuthService {
	return &AuthService{
		store:         store,
		hasher:        hasher,
		tokens:        tokens,
		authenticator: NewAuthenticator(store, hasher),
		logger:        logger,
		now:           time.Now,
	}
}

// Register hashes password and stores a new user. An empty role defaults to
// customer.
func (s *AuthService) Register(ctx context.Context, username, password, role string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidInput
	}
	r, err := domain.ParseRole(role)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
		Role:         r,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.store.Insert(ctx, user); err != nil {
		if !errors.Is(err, domain.ErrUserExists) {
			s.logger.Error().Err(err).Str("username", username).Msg("failed to store user")
		}
		return nil, err
	}

	s.logger.Info().Str("username", username).Str("role", string(r)).Msg("user registered")
	return user, nil
}

// Login authenticates the pair and issues an access token with the default ttl.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.AccessToken, *domain.User, error) {
	user, err := s.authenticator.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			s.logger.Info().Str("username", username).Msg("login rejected")
		}
		return nil, nil, err
	}

	token, err := s.tokens.Issue(user.Username, user.Role, 0)
	if err != nil {
		return nil, nil, err
	}

	return token, user, nil
}

package service

import (
	"context"
	"errors"
	"sync"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// Authenticator checks username/password pairs against the user store.
type Authenticator struct {
	store  ports.UserStore
	hasher ports.PasswordHasher

	decoyOnce sync.Once
	decoyHash string
}

func NewAuthenticator(store ports.UserStore, hasher ports.PasswordHasher) *Authenticator {
	return &Authenticator{store: store, hasher: hasher}
}

// Authenticate returns the matching user record. An unknown username and a
// wrong password both yield domain.ErrInvalidCredentials.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := a.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Spend a comparable amount of time on unknown users.
			a.hasher.Verify(password, a.decoy())
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !a.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (a *Authenticator) decoy() string {
	a.decoyOnce.Do(func() {
		a.decoyHash, _ = a.hasher.Hash("decoy-password")
	})
	return a.decoyHash
}

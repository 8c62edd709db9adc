package file

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// UserStore keeps user records in a UserBackend that can only load and save
// the full set. Insert holds the write lock across load, check and save, so
// two registrations of one username cannot both succeed.
type UserStore struct {
	backend ports.UserBackend
	mu      sync.RWMutex
}

var _ ports.UserStore = (*UserStore)(nil)

func NewUserStore(backend ports.UserBackend) *UserStore {
	return &UserStore{backend: backend}
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users, err := s.backend.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == username {
			u := users[i]
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *UserStore) Exists(ctx context.Context, username string) (bool, error) {
	_, err := s.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrUserNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *UserStore) Insert(ctx context.Context, user *domain.User) error {
	if user == nil || user.Username == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.backend.Load(ctx)
	if err != nil {
		return err
	}
	for i := range users {
		if users[i].Username == user.Username {
			return domain.ErrUserExists
		}
	}

	if err := s.backend.Save(ctx, append(users, *user)); err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	return nil
}

// Ping reports whether the backend can currently be read.
func (s *UserStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := s.backend.Load(ctx)
	return err
}

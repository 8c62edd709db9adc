package ports

import (
	"context"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// UserStore defines persistence of user records.
type UserStore interface {
	// FindByUsername returns the record with exactly this username, or
	// domain.ErrUserNotFound.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	Exists(ctx context.Context, username string) (bool, error)
	// Insert adds user atomically, failing with domain.ErrUserExists when the
	// username is already taken.
	Insert(ctx context.Context, user *domain.User) error
}

// UserBackend loads and saves the whole set of user records at once.
// Implementations must tolerate a missing backing resource.
type UserBackend interface {
	Load(ctx context.Context) ([]domain.User, error)
	Save(ctx context.Context, users []domain.User) error
}

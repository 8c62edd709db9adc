package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// DefaultUsersKey is the hash holding one field per username.
const DefaultUsersKey = "auth:users"

// UserStore keeps user records as JSON values in a single Redis hash.
// HSETNX makes Insert an atomic insert-if-absent.
type UserStore struct {
	client *redis.Client
	key    string
}

var _ ports.UserStore = (*UserStore)(nil)

func NewUserStore(client *redis.Client, key string) *UserStore {
	if key == "" {
		key = DefaultUsersKey
	}
	return &UserStore{client: client, key: key}
}

type redisUser struct {
	PasswordHash string `json:"password_hash"`
	Role         string `json:"role"`
	CreatedAt    int64  `json:"created_at,omitempty"`
}

func (s *UserStore) Insert(ctx context.Context, user *domain.User) error {
	if user == nil || user.Username == "" {
		return domain.ErrInvalidInput
	}

	var created int64
	if !user.CreatedAt.IsZero() {
		created = user.CreatedAt.Unix()
	}
	value, err := json.Marshal(redisUser{
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		CreatedAt:    created,
	})
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	ok, err := s.client.HSetNX(ctx, s.key, user.Username, value).Result()
	if err != nil {
		return fmt.Errorf("%w: hsetnx: %v", domain.ErrStoreUnavailable, err)
	}
	if !ok {
		return domain.ErrUserExists
	}
	return nil
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	raw, err := s.client.HGet(ctx, s.key, username).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: hget: %v", domain.ErrStoreUnavailable, err)
	}

	var ru redisUser
	if err := json.Unmarshal(raw, &ru); err != nil {
		return nil, fmt.Errorf("%w: decode user %q: %v", domain.ErrStoreUnavailable, username, err)
	}

	role := domain.Role(ru.Role)
	if role == "" {
		role = domain.DefaultRole
	}
	u := &domain.User{
		Username:     username,
		PasswordHash: ru.PasswordHash,
		Role:         role,
	}
	if ru.CreatedAt > 0 {
		u.CreatedAt = time.Unix(ru.CreatedAt, 0).UTC()
	}
	return u, nil
}

func (s *UserStore) Exists(ctx context.Context, username string) (bool, error) {
	ok, err := s.client.HExists(ctx, s.key, username).Result()
	if err != nil {
		return false, fmt.Errorf("%w: hexists: %v", domain.ErrStoreUnavailable, err)
	}
	return ok, nil
}

func (s *UserStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

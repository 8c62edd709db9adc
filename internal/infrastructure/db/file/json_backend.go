package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// record is the on-disk shape of a user. The hash lives under "password" to
// stay compatible with existing users.json files.
type record struct {
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// JSONBackend persists all user records as a single JSON array.
type JSONBackend struct {
	path   string
	strict bool
	log    zerolog.Logger
}

// Config captures the settings for a JSON-file backend.
type Config struct {
	Path string
	// StrictReads surfaces unreadable or corrupt files as
	// domain.ErrStoreUnavailable instead of loading an empty store.
	StrictReads bool
}

func NewJSONBackend(cfg Config, log zerolog.Logger) *JSONBackend {
	return &JSONBackend{
		path:   cfg.Path,
		strict: cfg.StrictReads,
		log:    log.With().Str("component", "users_file").Str("path", cfg.Path).Logger(),
	}
}

// Load reads every record. A missing file is an empty store; so is a corrupt
// one unless strict reads are enabled.
func (b *JSONBackend) Load(_ context.Context) ([]domain.User, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return b.degrade(fmt.Errorf("read users file: %w", err))
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return b.degrade(fmt.Errorf("decode users file: %w", err))
	}

	users := make([]domain.User, 0, len(records))
	for _, r := range records {
		if r.Username == "" {
			b.log.Warn().Msg("skipping user record without username")
			continue
		}
		role := domain.Role(r.Role)
		if role == "" {
			role = domain.DefaultRole
		}
		users = append(users, domain.User{
			Username:     r.Username,
			PasswordHash: r.Password,
			Role:         role,
			CreatedAt:    r.CreatedAt,
		})
	}
	return users, nil
}

// Save replaces the file contents with users. The new contents are written to
// a temporary file in the same directory and renamed into place, so readers
// only ever observe the previous or the new full set.
func (b *JSONBackend) Save(_ context.Context, users []domain.User) error {
	records := make([]record, len(users))
	for i, u := range users {
		records[i] = record{
			Username:  u.Username,
			Password:  u.PasswordHash,
			Role:      string(u.Role),
			CreatedAt: u.CreatedAt,
		}
	}

	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("%w: encode users: %v", domain.ErrStoreUnavailable, err)
	}

	if err := writeFileAtomic(b.path, data, 0o600); err != nil {
		b.log.Error().Err(err).Msg("users file write failed")
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (b *JSONBackend) degrade(err error) ([]domain.User, error) {
	if b.strict {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	b.log.Warn().Err(err).Msg("users file unusable, treating as empty")
	return nil, nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir all: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

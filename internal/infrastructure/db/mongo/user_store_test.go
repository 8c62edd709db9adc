package mongo

import (
	"testing"
	"time"

	"github.com/99minutos/auth-service/internal/core/domain"
)

func TestToDomain(t *testing.T) {
	created := time.Date(2025, 8, 14, 9, 30, 0, 0, time.UTC)
	u := toDomain(mongoUser{Username: "alice", PasswordHash: "h", Role: "admin", CreatedAt: created.Unix()})

	if u.Username != "alice" || u.PasswordHash != "h" || u.Role != domain.RoleAdmin {
		t.Fatalf("unexpected user: %+v", u)
	}
	if !u.CreatedAt.Equal(created) {
		t.Fatalf("expected %v, got %v", created, u.CreatedAt)
	}
}

func TestToDomain_Defaults(t *testing.T) {
	u := toDomain(mongoUser{Username: "bob"})

	if u.Role != domain.RoleCustomer {
		t.Fatalf("expected default role, got %q", u.Role)
	}
	if !u.CreatedAt.IsZero() {
		t.Fatalf("expected zero created_at, got %v", u.CreatedAt)
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"finanzas/internal/core"
)

// AuthService resolves authenticated principals to stored users,
// provisioning an account on first login.
type AuthService struct {
	store   UserStore
	isAdmin func(email string) bool
}

// NewAuthService wires a user store with the bootstrap-admin predicate,
// typically config.Config.IsAdminEmail. A nil predicate means no
// bootstrap admins.
func NewAuthService(store UserStore, isAdmin func(email string) bool) *AuthService {
	if isAdmin == nil {
		isAdmin = func(string) bool { return false }
	}
	return &AuthService{store: store, isAdmin: isAdmin}
}

// EnsureUser returns the user record for a verified email, creating it on
// first login. Emails on the bootstrap admin list get the ADMIN role.
func (s *AuthService) EnsureUser(ctx context.Context, email, name string) (core.User, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.User{}, fmt.Errorf("look up user %s: %w", email, err)
	}

	role := core.RoleUser
	if s.isAdmin(email) {
		role = core.RoleAdmin
	}

	created, err := s.store.CreateUser(ctx, core.User{Name: name, Email: email, Role: role})
	if err != nil {
		// Concurrent first logins race on the unique email; the loser
		// reads the winner's row.
		if existing, lookupErr := s.store.GetUserByEmail(ctx, email); lookupErr == nil {
			return existing, nil
		}
		return core.User{}, fmt.Errorf("provision user %s: %w", email, err)
	}

	slog.InfoContext(ctx, "Provisioned user on first login",
		"user_id", created.ID,
		"email", created.Email,
		"role", created.Role)
	return created, nil
}

// Package auth resolves and enforces caller identity. Authentication itself
// happens at the edge (bearer tokens); the rest of the system only ever sees
// an Identity and asks the guard for a Decision.
package auth

import (
	"context"

	"finanzas/internal/core"
)

// Identity is the resolved, trusted caller: id and role come from the user
// store, not from the token.
type Identity struct {
	UserID string
	Email  string
	Name   string
	Role   core.Role
}

// IsAdmin reports whether the caller holds the ADMIN role.
func (id Identity) IsAdmin() bool { return id.Role == core.RoleAdmin }

// Decision is the tagged result of an authorization check. A denial carries
// the reason; it is surfaced to the caller, never silently downgraded.
type Decision struct {
	Allowed bool
	Reason  string
}

func Allow() Decision { return Decision{Allowed: true} }

func Deny(reason string) Decision { return Decision{Reason: reason} }

// Require checks the identity against the set of roles permitted to perform
// an operation. An empty role set only requires authentication.
func Require(id Identity, roles ...core.Role) Decision {
	if id.UserID == "" {
		return Deny("authentication required")
	}
	if len(roles) == 0 {
		return Allow()
	}
	for _, r := range roles {
		if id.Role == r {
			return Allow()
		}
	}
	return Deny("insufficient role")
}

type contextKey struct{}

// WithIdentity attaches the resolved identity to the request context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFrom extracts the identity set by the authentication middleware.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

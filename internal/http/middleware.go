package http

import (
	"log/slog"
	"net/http"

	"finanzas/internal/auth"
	"finanzas/internal/core"
	"finanzas/internal/log"
)

// withAuth resolves the bearer token, provisions the user on first login and
// attaches the resulting identity to the request context. Requests without a
// valid token never reach the handler.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := auth.ParseTokenFromRequest(r, s.jwtSecret)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Unauthorized", "A valid bearer token is required")
			return
		}

		user, err := s.authService.EnsureUser(r.Context(), claims.Email, claims.Name)
		if err != nil {
			slog.ErrorContext(r.Context(), "Failed to resolve user from token",
				log.FieldUserEmail, claims.Email,
				log.FieldComponent, log.ComponentAuth,
				"error", err)
			respondError(w, http.StatusUnauthorized, "Unauthorized", "A valid bearer token is required")
			return
		}

		id := auth.Identity{
			UserID: user.ID,
			Email:  user.Email,
			Name:   user.Name,
			Role:   user.Role,
		}
		next(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	}
}

// withAdmin layers the ADMIN role check on top of withAuth.
func (s *Server) withAdmin(next http.HandlerFunc) http.HandlerFunc {
	return s.withAuth(func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.IdentityFrom(r.Context())
		if d := auth.Require(id, core.RoleAdmin); !d.Allowed {
			respondError(w, http.StatusForbidden, "Forbidden", d.Reason)
			return
		}
		next(w, r)
	})
}

// identity returns the authenticated caller. Handlers behind withAuth can
// rely on it being present.
func identity(r *http.Request) auth.Identity {
	id, _ := auth.IdentityFrom(r.Context())
	return id
}

package http

import (
	"net/http"

	"finanzas/internal/validation"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := s.users.List(r.Context(), parseUserFilters(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, page)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, u)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	data, err := decodeBody(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", "The body must be a JSON object")
		return
	}

	if result := validation.ValidateUserUpdate(data); !result.IsValid {
		respondValidationError(w, result)
		return
	}

	u, err := s.users.Update(r.Context(), identity(r).UserID, r.PathValue("id"), validation.SanitizeUser(data))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, u)
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.users.Stats(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, stats)
}

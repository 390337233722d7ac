package http

import (
	"net/http"
	"time"

	"finanzas/internal/services"
	"finanzas/internal/validation"
)

func (s *Server) handleListMovements(w http.ResponseWriter, r *http.Request) {
	page, err := s.movements.List(r.Context(), identity(r), parseMovementFilters(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, page)
}

func (s *Server) handleGetMovement(w http.ResponseWriter, r *http.Request) {
	m, err := s.movements.Get(r.Context(), identity(r), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, m)
}

func (s *Server) handleCreateMovement(w http.ResponseWriter, r *http.Request) {
	data, err := decodeBody(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", "The body must be a JSON object")
		return
	}

	if result := validation.ValidateMovement(data); !result.IsValid {
		respondValidationError(w, result)
		return
	}

	caller := identity(r)
	ownerID := caller.UserID
	// Admins may create movements on behalf of any user.
	if caller.IsAdmin() {
		if v, ok := data["userId"].(string); ok && v != "" {
			ownerID = v
		}
	}

	m, err := s.movements.Create(r.Context(), ownerID, validation.SanitizeMovement(data))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, m)
}

func (s *Server) handleUpdateMovement(w http.ResponseWriter, r *http.Request) {
	data, err := decodeBody(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", "The body must be a JSON object")
		return
	}

	// Ownership is enforced before touching the record.
	current, err := s.movements.Get(r.Context(), identity(r), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	// Validation runs over the supplied fields merged with the stored
	// record, so a partial patch cannot sidestep the field rules.
	merged := map[string]any{
		"concept": current.Concept,
		"amount":  current.Amount,
		"date":    current.Date.Format(time.RFC3339),
	}
	for k, v := range data {
		merged[k] = v
	}
	if result := validation.ValidateMovement(merged); !result.IsValid {
		respondValidationError(w, result)
		return
	}

	patch := movementPatch(data)
	m, err := s.movements.Update(r.Context(), current.ID, patch)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, m)
}

// movementPatch extracts only the supplied fields from an already validated
// payload.
func movementPatch(data map[string]any) services.MovementPatch {
	sanitized := validation.SanitizeMovement(data)

	var patch services.MovementPatch
	if _, ok := data["concept"]; ok {
		patch.Concept = &sanitized.Concept
	}
	if _, ok := data["amount"]; ok {
		patch.Amount = &sanitized.Amount
	}
	if _, ok := data["date"]; ok {
		patch.Date = &sanitized.Date
	}
	return patch
}

func (s *Server) handleDeleteMovement(w http.ResponseWriter, r *http.Request) {
	m, err := s.movements.Get(r.Context(), identity(r), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	if err := s.movements.Delete(r.Context(), m.ID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"id": m.ID})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.movements.Balance(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]float64{"balance": balance})
}

package http

import (
	"fmt"
	"net/http"
	"time"

	"finanzas/internal/services"
)

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	months, err := parseMonths(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	data, err := s.reports.ReportsData(r.Context(), months)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, data)
}

// handleExportCSV streams the full movement table as a CSV attachment. The
// UTF-8 BOM keeps spreadsheet imports from mangling accented concepts.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	rows, err := s.reports.MovementsForCSV(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	filename := fmt.Sprintf("movements-%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("\ufeff"))
	w.Write([]byte(services.GenerateCSV(rows)))
}

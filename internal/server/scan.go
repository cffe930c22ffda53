package server

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/ananthcjayan12/pdf-print-brady/internal/entity"
)

// scan resolves a scanned or typed code against the identifier index
// and decorates the hit with print history for the operator. A miss is
// a successful response with found=false.
func (s *Server) scan(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if decoded, err := url.PathUnescape(code); err == nil {
		code = decoded
	}

	match, err := s.resolver.Resolve(r.Context(), code)
	if err != nil {
		if errors.Is(err, entity.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "please enter a barcode")
			return
		}
		s.logger.Error("scan failed", "code", code, "error", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	if match == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"found":   false,
			"message": "barcode not found",
		})
		return
	}

	printCount, err := s.jobs.CountForIdentifier(r.Context(), match.Mapping.Identifier)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	lastPrint, err := s.jobs.LastForIdentifier(r.Context(), match.Mapping.Identifier)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	resp := map[string]any{
		"success":     true,
		"found":       true,
		"mapping":     match.Mapping,
		"document":    match.Document,
		"print_count": printCount,
	}
	if match.ExtractedSerial != "" {
		resp["extracted_serial"] = match.ExtractedSerial
	}
	if lastPrint != nil {
		resp["last_print"] = lastPrint
	}
	writeJSON(w, http.StatusOK, resp)
}

package server

import (
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ananthcjayan12/pdf-print-brady/constants"
	"github.com/ananthcjayan12/pdf-print-brady/internal/entity"
)

// uploadDocument accepts a multipart PDF upload and runs the indexing
// pass synchronously. A byte-identical re-upload is a success with
// is_duplicate set, so the frontend can warn instead of failing.
func (s *Server) uploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadBytes)
	if err := r.ParseMultipartForm(constants.MaxUploadBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large or malformed upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file part")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		writeError(w, http.StatusBadRequest, "please upload a PDF file")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	result, err := s.indexer.IndexDocument(r.Context(), data, header.Filename)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrInvalidInput), errors.Is(err, entity.ErrUnreadablePDF):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error("indexing failed", "name", header.Filename, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to process PDF file")
		}
		return
	}

	message := "file uploaded and indexed"
	if result.WasDuplicate {
		message = "file already exists"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": message,
		"file_id": result.DocumentID,
		"stats": map[string]int{
			"pages":       result.PageCount,
			"identifiers": result.IdentifiersFound,
		},
		"is_duplicate": result.WasDuplicate,
	})
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.docs.List(r.Context())
	if err != nil {
		s.logger.Error("list documents failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "documents": docs})
}

// documentDetail returns a document plus its mappings sorted by page.
func (s *Server) documentDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	doc, err := s.docs.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load document")
		return
	}

	mappings, err := s.mappings.ListByDocument(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load mappings")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"details": map[string]any{
			"document": doc,
			"mappings": mappings,
		},
	})
}

// deleteDocument removes the document row (mappings cascade) and the
// stored PDF. The file removal is best-effort; the index is the source
// of truth.
func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	doc, err := s.docs.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load document")
		return
	}

	if err := s.docs.Delete(r.Context(), id); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		s.logger.Error("delete document failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}

	if err := os.Remove(doc.Path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove stored file", "path", doc.Path, "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "document deleted"})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.docs.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "stats": stats})
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return uuid.Nil, false
	}
	return id, true
}

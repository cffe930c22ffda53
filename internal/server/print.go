package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ananthcjayan12/pdf-print-brady/constants"
	"github.com/ananthcjayan12/pdf-print-brady/internal/entity"
	"github.com/ananthcjayan12/pdf-print-brady/internal/pdftext"
	"github.com/ananthcjayan12/pdf-print-brady/internal/printing"
)

// previewPage serves one page of a stored document as a standalone PDF
// for the browser preview pane.
func (s *Server) previewPage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil || page < 1 {
		writeError(w, http.StatusBadRequest, "invalid page number")
		return
	}

	pageBytes, doc, ok := s.extractStoredPage(w, r, id, page)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("inline; filename=%q", fmt.Sprintf("%s_page_%d.pdf", doc.Name, page)))
	_, _ = w.Write(pageBytes)
}

type printRequest struct {
	FileID      uuid.UUID `json:"file_id"`
	PageNum     int       `json:"page_num"`
	PrinterName string    `json:"printer_name"`
	Username    string    `json:"username"`
}

// printPage extracts the mapped page and hands it to the print system.
// The outcome is recorded as a print job either way so the report shows
// failures too.
func (s *Server) printPage(w http.ResponseWriter, r *http.Request) {
	var req printRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request data")
		return
	}
	if req.FileID == uuid.Nil || req.PageNum < 1 {
		writeError(w, http.StatusBadRequest, "missing file_id or page_num")
		return
	}
	actor := req.Username
	if actor == "" {
		actor = "unknown"
	}

	pageBytes, doc, ok := s.extractStoredPage(w, r, req.FileID, req.PageNum)
	if !ok {
		return
	}

	// The identifier on the printed page is the join key for "times
	// printed"; take the first mapping for that page if there is one.
	identifier := ""
	if mappings, err := s.mappings.ListByDocument(r.Context(), req.FileID); err == nil {
		for _, m := range mappings {
			if m.PageNumber == req.PageNum {
				identifier = m.Identifier
				break
			}
		}
	}

	job := &entity.PrintJob{
		ID:           uuid.New(),
		DocumentID:   doc.ID,
		DocumentName: doc.Name,
		Identifier:   identifier,
		PageNumber:   req.PageNum,
		Printer:      printerLabel(req.PrinterName),
		Actor:        actor,
		CreatedAt:    time.Now().UTC(),
	}

	message, printErr := s.printer.Print(r.Context(), pageBytes, req.PrinterName)
	if printErr != nil {
		job.Status = constants.PrintStatusFailed
		job.Message = printErr.Error()
	} else {
		job.Status = constants.PrintStatusSuccess
		job.Message = message
	}

	if err := s.jobs.Create(r.Context(), job); err != nil {
		s.logger.Error("failed to record print job", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record print job")
		return
	}

	if printErr != nil {
		s.logger.Error("print failed", "document_id", doc.ID, "page", req.PageNum, "error", printErr)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": printErr.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": message, "job_id": job.ID})
}

func (s *Server) listPrinters(w http.ResponseWriter, r *http.Request) {
	printers, def, err := printing.ListPrinters(r.Context())
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": err.Error(), "printers": []string{}})
		return
	}
	if printers == nil {
		printers = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"printers":        printers,
		"default_printer": def,
	})
}

func (s *Server) printHistory(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.jobs.List(r.Context(), 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if jobs == nil {
		jobs = []entity.PrintJob{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "history": jobs})
}

func (s *Server) exportReport(w http.ResponseWriter, r *http.Request) {
	data, err := s.export.ReportXLSX(r.Context())
	if err != nil {
		s.logger.Error("report generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "report generation failed")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="print_report.xlsx"`)
	_, _ = w.Write(data)
}

// extractStoredPage loads a document's stored PDF and splits out one
// page. On failure it writes the error response and returns ok=false.
func (s *Server) extractStoredPage(w http.ResponseWriter, r *http.Request, id uuid.UUID, page int) ([]byte, *entity.Document, bool) {
	doc, err := s.docs.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
		} else {
			writeError(w, http.StatusInternalServerError, "failed to load document")
		}
		return nil, nil, false
	}
	if page > doc.PageCount {
		writeError(w, http.StatusBadRequest, "page number out of range")
		return nil, nil, false
	}

	data, err := os.ReadFile(doc.Path)
	if err != nil {
		s.logger.Error("stored file missing", "path", doc.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "stored file is unavailable")
		return nil, nil, false
	}

	pageBytes, err := pdftext.ExtractPage(data, page)
	if err != nil {
		s.logger.Error("page extraction failed", "document_id", id, "page", page, "error", err)
		writeError(w, http.StatusInternalServerError, "page extraction failed")
		return nil, nil, false
	}
	return pageBytes, doc, true
}

func printerLabel(name string) string {
	if name == "" {
		return "default"
	}
	return name
}

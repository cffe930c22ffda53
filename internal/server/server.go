// Package server is the HTTP boundary: request routing, upload
// handling, and JSON shaping. All engine logic lives below it.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ananthcjayan12/pdf-print-brady/internal/export"
	"github.com/ananthcjayan12/pdf-print-brady/internal/indexer"
	"github.com/ananthcjayan12/pdf-print-brady/internal/printing"
	"github.com/ananthcjayan12/pdf-print-brady/internal/repository"
	"github.com/ananthcjayan12/pdf-print-brady/internal/resolver"
)

type Server struct {
	indexer  *indexer.Service
	resolver *resolver.Service
	docs     repository.DocumentRepository
	mappings repository.MappingRepository
	jobs     repository.PrintJobRepository
	printer  printing.Printer
	export   *export.Service
	logger   *slog.Logger
}

func New(
	idx *indexer.Service,
	res *resolver.Service,
	docs repository.DocumentRepository,
	mappings repository.MappingRepository,
	jobs repository.PrintJobRepository,
	printer printing.Printer,
	exp *export.Service,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		indexer:  idx,
		resolver: res,
		docs:     docs,
		mappings: mappings,
		jobs:     jobs,
		printer:  printer,
		export:   exp,
		logger:   logger,
	}
}

// Router wires all endpoints. The scan station frontend is served from
// elsewhere, so CORS is permissive.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(withCORS)

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.uploadDocument)
		r.Get("/documents", s.listDocuments)
		r.Get("/documents/{id}", s.documentDetail)
		r.Delete("/documents/{id}", s.deleteDocument)
		r.Get("/scan/{code}", s.scan)
		r.Get("/preview/{id}/{page}", s.previewPage)
		r.Post("/print", s.printPage)
		r.Get("/printers", s.listPrinters)
		r.Get("/history", s.printHistory)
		r.Get("/stats", s.stats)
		r.Get("/reports/export", s.exportReport)
	})

	return r
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "print station is running"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}

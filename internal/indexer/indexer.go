// Package indexer walks label-sheet PDFs and builds the
// identifier-to-page index.
package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ananthcjayan12/pdf-print-brady/internal/entity"
	"github.com/ananthcjayan12/pdf-print-brady/internal/extract"
	"github.com/ananthcjayan12/pdf-print-brady/internal/pdftext"
	"github.com/ananthcjayan12/pdf-print-brady/internal/repository"
)

// IndexResult is the outcome of indexing one uploaded file.
type IndexResult struct {
	DocumentID       uuid.UUID `json:"document_id"`
	PageCount        int       `json:"page_count"`
	IdentifiersFound int       `json:"identifiers_found"`
	WasDuplicate     bool      `json:"was_duplicate"`
}

// Service indexes documents. Indexing passes are serialized by a
// process-wide mutex so the fingerprint check and the page walk of one
// document never interleave with another upload; readers only ever see
// documents whose indexing committed (the repositories filter on the
// processed flag).
type Service struct {
	mu        sync.Mutex
	docs      repository.DocumentRepository
	mappings  repository.MappingRepository
	extractor *extract.Extractor
	dataDir   string
	logger    *slog.Logger
}

func NewService(docs repository.DocumentRepository, mappings repository.MappingRepository, ex *extract.Extractor, dataDir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		docs:      docs,
		mappings:  mappings,
		extractor: ex,
		dataDir:   dataDir,
		logger:    logger,
	}
}

// IndexDocument fingerprints fileBytes, short-circuits on a re-upload of
// byte-identical content, and otherwise walks every page extracting
// identifiers into the index. A page whose text layer cannot be read is
// skipped; an unreadable container fails the whole operation with
// nothing persisted.
func (s *Service) IndexDocument(ctx context.Context, fileBytes []byte, displayName string) (IndexResult, error) {
	if len(fileBytes) == 0 {
		return IndexResult{}, fmt.Errorf("%w: empty upload", entity.ErrInvalidInput)
	}

	sum := sha256.Sum256(fileBytes)
	hashHex := hex.EncodeToString(sum[:])

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, err := s.docs.GetByHash(ctx, hashHex); err == nil {
		s.logger.Info("duplicate upload, returning existing document",
			"document_id", existing.ID, "name", displayName)
		return IndexResult{
			DocumentID:       existing.ID,
			PageCount:        existing.PageCount,
			IdentifiersFound: existing.IdentifiersFound,
			WasDuplicate:     true,
		}, nil
	} else if !errors.Is(err, entity.ErrNotFound) {
		return IndexResult{}, err
	}

	pdfDoc, err := pdftext.New(fileBytes)
	if err != nil {
		return IndexResult{}, err
	}
	pageCount := pdfDoc.PageCount()

	id := uuid.New()
	path, err := s.storeFile(id, fileBytes)
	if err != nil {
		return IndexResult{}, err
	}

	now := time.Now().UTC()
	doc := &entity.Document{
		ID:          id,
		Name:        displayName,
		Path:        path,
		ContentHash: hashHex,
		PageCount:   pageCount,
		UploadedAt:  now,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		s.removeFile(path)
		return IndexResult{}, err
	}

	found, err := s.walkPages(ctx, id, pdfDoc, now)
	if err != nil {
		// Keep index and store consistent: a persistence failure
		// mid-walk rolls the document back entirely.
		s.rollback(ctx, id, path)
		return IndexResult{}, err
	}

	if err := s.docs.MarkProcessed(ctx, id, pageCount, found); err != nil {
		// An unprocessed row would pin the content hash while staying
		// invisible to lookups, so the commit failure rolls back too.
		s.rollback(ctx, id, path)
		return IndexResult{}, err
	}

	s.logger.Info("document indexed",
		"document_id", id, "name", displayName, "pages", pageCount, "identifiers", found)

	return IndexResult{
		DocumentID:       id,
		PageCount:        pageCount,
		IdentifiersFound: found,
	}, nil
}

// walkPages extracts candidates page by page and merges them into the
// index. Returns how many new (identifier, page) entries were created.
func (s *Service) walkPages(ctx context.Context, docID uuid.UUID, pdfDoc *pdftext.Document, now time.Time) (int, error) {
	found := 0
	for page := 1; page <= pdfDoc.PageCount(); page++ {
		text, err := pdfDoc.PageText(page)
		if err != nil {
			s.logger.Warn("skipping unreadable page", "document_id", docID, "page", page, "error", err)
			continue
		}

		candidates := extract.DedupeByText(s.extractor.Extract(text))
		for _, c := range candidates {
			created, err := s.mappings.Upsert(ctx, &entity.Mapping{
				DocumentID: docID,
				Identifier: c.Text,
				PageNumber: page,
				Type:       c.Type,
				Confidence: c.Confidence,
				CreatedAt:  now,
			})
			if err != nil {
				return found, err
			}
			if created {
				found++
				s.logger.Info("identifier indexed", "identifier", c.Text, "type", c.Type, "page", page)
			}
		}
	}
	return found, nil
}

// rollback deletes the partial document row (mappings cascade) and the
// stored file.
func (s *Service) rollback(ctx context.Context, id uuid.UUID, path string) {
	if err := s.docs.Delete(ctx, id); err != nil {
		s.logger.Error("failed to roll back partial document", "document_id", id, "error", err)
	}
	s.removeFile(path)
}

func (s *Service) storeFile(id uuid.UUID, data []byte) (string, error) {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(s.dataDir, id.String()+".pdf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return path, nil
}

func (s *Service) removeFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove stored file", "path", path, "error", err)
	}
}

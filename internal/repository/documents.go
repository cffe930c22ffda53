package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ananthcjayan12/pdf-print-brady/internal/entity"
)

// IndexStats aggregates counters for the dashboard.
type IndexStats struct {
	Documents   int `json:"documents"`
	Pages       int `json:"pages"`
	Identifiers int `json:"identifiers"`
	PrintJobs   int `json:"print_jobs"`
}

type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	GetByHash(ctx context.Context, hash string) (*entity.Document, error)
	List(ctx context.Context) ([]entity.Document, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, pageCount, identifiersFound int) error
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (IndexStats, error)
}

type documentRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewDocumentRepository(db *sql.DB, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepo{db: db, logger: logger}
}

const documentCols = "id, name, path, content_hash, page_count, identifiers_found, processed, uploaded_at"

func (r *documentRepo) Create(ctx context.Context, doc *entity.Document) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO documents ("+documentCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		doc.ID, doc.Name, doc.Path, doc.ContentHash, doc.PageCount, doc.IdentifiersFound, doc.Processed, doc.UploadedAt,
	)
	if err != nil {
		r.logger.Error("failed to create document", "id", doc.ID, "name", doc.Name, "error", err)
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	return r.getOne(ctx, "SELECT "+documentCols+" FROM documents WHERE id = ?", id)
}

func (r *documentRepo) GetByHash(ctx context.Context, hash string) (*entity.Document, error) {
	return r.getOne(ctx, "SELECT "+documentCols+" FROM documents WHERE content_hash = ?", hash)
}

func (r *documentRepo) getOne(ctx context.Context, query string, arg any) (*entity.Document, error) {
	var d entity.Document
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&d.ID, &d.Name, &d.Path, &d.ContentHash, &d.PageCount, &d.IdentifiersFound, &d.Processed, &d.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &d, nil
}

// List returns all documents, most recently uploaded first.
func (r *documentRepo) List(ctx context.Context) ([]entity.Document, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+documentCols+" FROM documents ORDER BY uploaded_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []entity.Document
	for rows.Next() {
		var d entity.Document
		if err := rows.Scan(&d.ID, &d.Name, &d.Path, &d.ContentHash, &d.PageCount, &d.IdentifiersFound, &d.Processed, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *documentRepo) MarkProcessed(ctx context.Context, id uuid.UUID, pageCount, identifiersFound int) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE documents SET processed = 1, page_count = ?, identifiers_found = ? WHERE id = ?",
		pageCount, identifiersFound, id,
	)
	if err != nil {
		r.logger.Error("failed to mark document processed", "id", id, "error", err)
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

// Delete removes a document; its mappings cascade with it. The content
// hash registration disappears with the row, so re-uploading the same
// bytes afterwards indexes from scratch.
func (r *documentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		r.logger.Error("failed to delete document", "id", id, "error", err)
		return fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (r *documentRepo) Stats(ctx context.Context) (IndexStats, error) {
	var s IndexStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM documents),
			(SELECT COALESCE(SUM(page_count), 0) FROM documents),
			(SELECT COUNT(*) FROM mappings),
			(SELECT COUNT(*) FROM print_jobs)
	`).Scan(&s.Documents, &s.Pages, &s.Identifiers, &s.PrintJobs)
	if err != nil {
		return IndexStats{}, fmt.Errorf("stats: %w", err)
	}
	return s, nil
}

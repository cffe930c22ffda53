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

type MappingRepository interface {
	// Upsert inserts a mapping unless (document, identifier, page)
	// already exists; it reports whether a new row was created.
	Upsert(ctx context.Context, m *entity.Mapping) (bool, error)
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]entity.Mapping, error)
	// FindExact returns the first mapping whose identifier equals the
	// query, case-insensitively, in insertion order. Nil when absent.
	FindExact(ctx context.Context, identifier string) (*entity.Mapping, error)
	// FindContaining returns the first mapping, in insertion order,
	// whose identifier contains the query or is contained by it,
	// case-insensitively. Nil when absent.
	FindContaining(ctx context.Context, query string) (*entity.Mapping, error)
}

type mappingRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewMappingRepository(db *sql.DB, logger *slog.Logger) MappingRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &mappingRepo{db: db, logger: logger}
}

const (
	mappingCols         = "id, document_id, identifier, page_number, type, confidence, created_at"
	prefixedMappingCols = "m.id, m.document_id, m.identifier, m.page_number, m.type, m.confidence, m.created_at"
)

func (r *mappingRepo) Upsert(ctx context.Context, m *entity.Mapping) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO mappings (document_id, identifier, page_number, type, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.DocumentID, m.Identifier, m.PageNumber, m.Type, m.Confidence, m.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to upsert mapping", "document_id", m.DocumentID, "identifier", m.Identifier, "page", m.PageNumber, "error", err)
		return false, fmt.Errorf("upsert mapping: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("upsert mapping: %w", err)
	}
	if n > 0 {
		id, err := res.LastInsertId()
		if err == nil {
			m.ID = id
		}
	}
	return n > 0, nil
}

// ListByDocument returns a document's mappings sorted by page number.
func (r *mappingRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]entity.Mapping, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+mappingCols+" FROM mappings WHERE document_id = ? ORDER BY page_number, id", documentID)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	defer rows.Close()
	return scanMappings(rows)
}

// Lookups join on the processed flag so a document whose indexing pass
// is still running (or rolled back) is never resolvable.

func (r *mappingRepo) FindExact(ctx context.Context, identifier string) (*entity.Mapping, error) {
	return r.findOne(ctx, `
		SELECT `+prefixedMappingCols+` FROM mappings m
		JOIN documents d ON d.id = m.document_id AND d.processed = 1
		WHERE m.identifier = ?1 COLLATE NOCASE
		ORDER BY m.id LIMIT 1`,
		identifier)
}

func (r *mappingRepo) FindContaining(ctx context.Context, query string) (*entity.Mapping, error) {
	// Containment in either direction: a scanned payload may wrap a
	// known identifier, or an operator may type only part of one.
	// Insertion order (rowid) is the deterministic tie-break.
	return r.findOne(ctx, `
		SELECT `+prefixedMappingCols+` FROM mappings m
		JOIN documents d ON d.id = m.document_id AND d.processed = 1
		WHERE instr(upper(?1), upper(m.identifier)) > 0
		   OR instr(upper(m.identifier), upper(?1)) > 0
		ORDER BY m.id LIMIT 1`,
		query)
}

func (r *mappingRepo) findOne(ctx context.Context, query string, arg any) (*entity.Mapping, error) {
	var m entity.Mapping
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&m.ID, &m.DocumentID, &m.Identifier, &m.PageNumber, &m.Type, &m.Confidence, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find mapping: %w", err)
	}
	return &m, nil
}

func scanMappings(rows *sql.Rows) ([]entity.Mapping, error) {
	var out []entity.Mapping
	for rows.Next() {
		var m entity.Mapping
		if err := rows.Scan(&m.ID, &m.DocumentID, &m.Identifier, &m.PageNumber, &m.Type, &m.Confidence, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

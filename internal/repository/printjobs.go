package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ananthcjayan12/pdf-print-brady/constants"
	"github.com/ananthcjayan12/pdf-print-brady/internal/entity"
)

type PrintJobRepository interface {
	Create(ctx context.Context, job *entity.PrintJob) error
	// List returns print jobs, most recent first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]entity.PrintJob, error)
	// CountForIdentifier counts successful prints of an identifier.
	CountForIdentifier(ctx context.Context, identifier string) (int, error)
	// LastForIdentifier returns the most recent successful print of an
	// identifier, or nil.
	LastForIdentifier(ctx context.Context, identifier string) (*entity.PrintJob, error)
}

type printJobRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPrintJobRepository(db *sql.DB, logger *slog.Logger) PrintJobRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &printJobRepo{db: db, logger: logger}
}

const printJobCols = "id, document_id, document_name, identifier, page_number, printer, actor, status, message, created_at"

func (r *printJobRepo) Create(ctx context.Context, job *entity.PrintJob) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO print_jobs ("+printJobCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		job.ID, job.DocumentID, job.DocumentName, job.Identifier, job.PageNumber,
		job.Printer, job.Actor, string(job.Status), job.Message, job.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to record print job", "id", job.ID, "identifier", job.Identifier, "error", err)
		return fmt.Errorf("insert print job: %w", err)
	}
	return nil
}

func (r *printJobRepo) List(ctx context.Context, limit int) ([]entity.PrintJob, error) {
	q := "SELECT " + printJobCols + " FROM print_jobs ORDER BY created_at DESC, id"
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list print jobs: %w", err)
	}
	defer rows.Close()

	var jobs []entity.PrintJob
	for rows.Next() {
		j, err := scanPrintJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

func (r *printJobRepo) CountForIdentifier(ctx context.Context, identifier string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM print_jobs WHERE identifier = ? COLLATE NOCASE AND status = ?",
		identifier, string(constants.PrintStatusSuccess),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count print jobs: %w", err)
	}
	return n, nil
}

func (r *printJobRepo) LastForIdentifier(ctx context.Context, identifier string) (*entity.PrintJob, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+printJobCols+" FROM print_jobs WHERE identifier = ? COLLATE NOCASE AND status = ? ORDER BY created_at DESC, id DESC LIMIT 1",
		identifier, string(constants.PrintStatusSuccess))
	j, err := scanPrintJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return j, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrintJob(row rowScanner) (*entity.PrintJob, error) {
	var j entity.PrintJob
	var status string
	err := row.Scan(&j.ID, &j.DocumentID, &j.DocumentName, &j.Identifier, &j.PageNumber,
		&j.Printer, &j.Actor, &status, &j.Message, &j.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan print job: %w", err)
	}
	j.Status = constants.PrintStatus(status)
	return &j, nil
}

package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ananthcjayan12/pdf-print-brady/internal/repository"
)

// Service is a tiny façade over repositories that produces XLSX bytes
// for the station report: the full print history plus per-document
// index coverage.
type Service struct {
	docs   repository.DocumentRepository
	jobs   repository.PrintJobRepository
	logger *slog.Logger
}

func NewService(docs repository.DocumentRepository, jobs repository.PrintJobRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, jobs: jobs, logger: logger}
}

// ReportXLSX returns the report workbook as bytes.
func (s *Service) ReportXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	jobs, err := s.jobs.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("query print jobs: %w", err)
	}
	docs, err := s.docs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	f := excelize.NewFile()

	const historySheet = "Print History"
	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		return nil, err
	}

	historyHeaders := []string{"Date", "Time", "Document", "Identifier", "Page", "User", "Printer", "Status", "Message"}
	for i, h := range historyHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(historySheet, cell, h)
	}

	row := 2
	for _, j := range jobs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(historySheet, cell, v)
		}
		ts := j.CreatedAt.UTC()
		write(1, ts.Format("2006-01-02"))
		write(2, ts.Format("15:04:05"))
		write(3, j.DocumentName)
		write(4, j.Identifier)
		write(5, j.PageNumber)
		write(6, j.Actor)
		write(7, j.Printer)
		write(8, string(j.Status))
		write(9, j.Message)
		row++
	}

	_ = f.SetColWidth(historySheet, "A", "B", 12)
	_ = f.SetColWidth(historySheet, "C", "C", 36)
	_ = f.SetColWidth(historySheet, "D", "D", 24)
	_ = f.SetColWidth(historySheet, "F", "G", 18)
	_ = f.SetColWidth(historySheet, "I", "I", 48)

	const docSheet = "Documents"
	if _, err := f.NewSheet(docSheet); err != nil {
		return nil, err
	}

	docHeaders := []string{"Name", "Pages", "Identifiers", "Processed", "Uploaded At"}
	for i, h := range docHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(docSheet, cell, h)
	}

	row = 2
	for _, d := range docs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(docSheet, cell, v)
		}
		write(1, d.Name)
		write(2, d.PageCount)
		write(3, d.IdentifiersFound)
		write(4, d.Processed)
		write(5, d.UploadedAt.UTC().Format(time.RFC3339))
		row++
	}

	_ = f.SetColWidth(docSheet, "A", "A", 36)
	_ = f.SetColWidth(docSheet, "E", "E", 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("report generated",
		"jobs", len(jobs), "documents", len(docs), "duration", time.Since(start))
	return buf.Bytes(), nil
}

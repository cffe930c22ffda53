package export

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/ananthcjayan12/pdf-print-brady/constants"
	"github.com/ananthcjayan12/pdf-print-brady/internal/entity"
	"github.com/ananthcjayan12/pdf-print-brady/internal/repository"
)

func setup(t *testing.T) (*Service, repository.DocumentRepository, repository.PrintJobRepository) {
	t.Helper()
	db, err := repository.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	docs := repository.NewDocumentRepository(db, nil)
	jobs := repository.NewPrintJobRepository(db, nil)
	return NewService(docs, jobs, nil), docs, jobs
}

func TestReportXLSXEmpty(t *testing.T) {
	svc, _, _ := setup(t)

	data, err := svc.ReportXLSX(context.Background())
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Print History" || sheets[1] != "Documents" {
		t.Errorf("sheets = %v", sheets)
	}
}

func TestReportXLSXContainsHistory(t *testing.T) {
	svc, docs, jobs := setup(t)
	ctx := context.Background()

	doc := &entity.Document{
		ID:          uuid.New(),
		Name:        "sheet.pdf",
		Path:        "/data/sheet.pdf",
		ContentHash: "h",
		UploadedAt:  time.Now().UTC(),
	}
	if err := docs.Create(ctx, doc); err != nil {
		t.Fatalf("create document: %v", err)
	}
	if err := jobs.Create(ctx, &entity.PrintJob{
		ID:           uuid.New(),
		DocumentID:   doc.ID,
		DocumentName: doc.Name,
		Identifier:   "E12345678901",
		PageNumber:   3,
		Printer:      "brady-01",
		Actor:        "station",
		Status:       constants.PrintStatusSuccess,
		CreatedAt:    time.Now().UTC(),
	}); err != nil {
		t.Fatalf("create job: %v", err)
	}

	data, err := svc.ReportXLSX(ctx)
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Print History")
	if err != nil {
		t.Fatalf("read history sheet: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header plus one row, got %d rows", len(rows))
	}
	if rows[1][3] != "E12345678901" {
		t.Errorf("identifier cell = %q", rows[1][3])
	}
	if rows[1][7] != "SUCCESS" {
		t.Errorf("status cell = %q", rows[1][7])
	}

	docRows, err := f.GetRows("Documents")
	if err != nil {
		t.Fatalf("read documents sheet: %v", err)
	}
	if len(docRows) != 2 || docRows[1][0] != "sheet.pdf" {
		t.Errorf("documents sheet rows: %v", docRows)
	}
}

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ananthcjayan12/pdf-print-brady/constants"
	"github.com/ananthcjayan12/pdf-print-brady/internal/catalog"
	"github.com/ananthcjayan12/pdf-print-brady/internal/entity"
	"github.com/ananthcjayan12/pdf-print-brady/internal/export"
	"github.com/ananthcjayan12/pdf-print-brady/internal/extract"
	"github.com/ananthcjayan12/pdf-print-brady/internal/indexer"
	"github.com/ananthcjayan12/pdf-print-brady/internal/printing"
	"github.com/ananthcjayan12/pdf-print-brady/internal/repository"
	"github.com/ananthcjayan12/pdf-print-brady/internal/resolver"
)

type fixture struct {
	handler  http.Handler
	docs     repository.DocumentRepository
	mappings repository.MappingRepository
	jobs     repository.PrintJobRepository
}

func setup(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	db, err := repository.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	docs := repository.NewDocumentRepository(db, nil)
	mappings := repository.NewMappingRepository(db, nil)
	jobs := repository.NewPrintJobRepository(db, nil)
	cat := catalog.Builtin()
	extractor := extract.NewExtractor(cat, nil)
	idx := indexer.NewService(docs, mappings, extractor, filepath.Join(dir, "files"), nil)
	res := resolver.NewService(cat, mappings, docs, nil)
	exp := export.NewService(docs, jobs, nil)

	srv := New(idx, res, docs, mappings, jobs, printing.Noop{}, exp, nil)
	return &fixture{
		handler:  srv.Router(),
		docs:     docs,
		mappings: mappings,
		jobs:     jobs,
	}
}

func (f *fixture) seed(t *testing.T, name, identifier string, page int) *entity.Document {
	t.Helper()
	ctx := context.Background()
	doc := &entity.Document{
		ID:          uuid.New(),
		Name:        name,
		Path:        "/data/" + name,
		ContentHash: name + "-hash",
		UploadedAt:  time.Now().UTC(),
	}
	if err := f.docs.Create(ctx, doc); err != nil {
		t.Fatalf("create document: %v", err)
	}
	if err := f.docs.MarkProcessed(ctx, doc.ID, page, 1); err != nil {
		t.Fatalf("mark processed: %v", err)
	}
	if _, err := f.mappings.Upsert(ctx, &entity.Mapping{
		DocumentID: doc.ID,
		Identifier: identifier,
		PageNumber: page,
		Type:       "SN",
		Confidence: 1.0,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		t.Fatalf("upsert mapping: %v", err)
	}
	return doc
}

func (f *fixture) do(t *testing.T, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestHealth(t *testing.T) {
	f := setup(t)
	rec := f.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if m := decode(t, rec); m["status"] != "ok" {
		t.Errorf("unexpected body: %v", m)
	}
}

func TestScanMiss(t *testing.T) {
	f := setup(t)
	rec := f.do(t, http.MethodGet, "/api/scan/UNKNOWN123", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	m := decode(t, rec)
	if m["success"] != true || m["found"] != false {
		t.Errorf("unexpected body: %v", m)
	}
}

func TestScanHit(t *testing.T) {
	f := setup(t)
	doc := f.seed(t, "sheet.pdf", "E12345678901", 4)

	rec := f.do(t, http.MethodGet, "/api/scan/e12345678901", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	m := decode(t, rec)
	if m["found"] != true {
		t.Fatalf("expected a hit: %v", m)
	}
	mapping := m["mapping"].(map[string]any)
	if mapping["page_number"].(float64) != 4 {
		t.Errorf("page = %v, want 4", mapping["page_number"])
	}
	document := m["document"].(map[string]any)
	if document["id"] != doc.ID.String() {
		t.Errorf("document id = %v", document["id"])
	}
	if m["print_count"].(float64) != 0 {
		t.Errorf("print_count = %v, want 0", m["print_count"])
	}
}

func TestScanHitReportsPrintHistory(t *testing.T) {
	f := setup(t)
	doc := f.seed(t, "sheet.pdf", "E12345678901", 4)

	job := &entity.PrintJob{
		ID:           uuid.New(),
		DocumentID:   doc.ID,
		DocumentName: doc.Name,
		Identifier:   "E12345678901",
		PageNumber:   4,
		Printer:      "brady-01",
		Actor:        "station",
		Status:       constants.PrintStatusSuccess,
		CreatedAt:    time.Now().UTC(),
	}
	if err := f.jobs.Create(context.Background(), job); err != nil {
		t.Fatalf("create job: %v", err)
	}

	m := decode(t, f.do(t, http.MethodGet, "/api/scan/E12345678901", ""))
	if m["print_count"].(float64) != 1 {
		t.Errorf("print_count = %v, want 1", m["print_count"])
	}
	if _, ok := m["last_print"]; !ok {
		t.Error("expected last_print in response")
	}
}

func TestListDocuments(t *testing.T) {
	f := setup(t)
	f.seed(t, "a.pdf", "E11111111111", 1)
	f.seed(t, "b.pdf", "E22222222222", 2)

	m := decode(t, f.do(t, http.MethodGet, "/api/documents", ""))
	docs := m["documents"].([]any)
	if len(docs) != 2 {
		t.Errorf("expected 2 documents, got %d", len(docs))
	}
}

func TestDocumentDetail(t *testing.T) {
	f := setup(t)
	doc := f.seed(t, "sheet.pdf", "E12345678901", 3)

	rec := f.do(t, http.MethodGet, "/api/documents/"+doc.ID.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	m := decode(t, rec)
	details := m["details"].(map[string]any)
	mappings := details["mappings"].([]any)
	if len(mappings) != 1 {
		t.Errorf("expected 1 mapping, got %d", len(mappings))
	}
}

func TestDocumentDetailErrors(t *testing.T) {
	f := setup(t)

	if rec := f.do(t, http.MethodGet, "/api/documents/not-a-uuid", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid id status = %d, want 400", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/documents/"+uuid.NewString(), ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing doc status = %d, want 404", rec.Code)
	}
}

func TestDeleteDocumentRemovesMappings(t *testing.T) {
	f := setup(t)
	doc := f.seed(t, "sheet.pdf", "E12345678901", 2)

	rec := f.do(t, http.MethodDelete, "/api/documents/"+doc.ID.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d: %s", rec.Code, rec.Body.String())
	}

	// The identifier is no longer resolvable.
	m := decode(t, f.do(t, http.MethodGet, "/api/scan/E12345678901", ""))
	if m["found"] != false {
		t.Errorf("identifier still resolvable after deletion: %v", m)
	}
}

func TestStatsEndpoint(t *testing.T) {
	f := setup(t)
	f.seed(t, "sheet.pdf", "E12345678901", 5)

	m := decode(t, f.do(t, http.MethodGet, "/api/stats", ""))
	stats := m["stats"].(map[string]any)
	if stats["documents"].(float64) != 1 {
		t.Errorf("documents = %v, want 1", stats["documents"])
	}
	if stats["pages"].(float64) != 5 {
		t.Errorf("pages = %v, want 5", stats["pages"])
	}
}

func TestUploadRejectsNonPDF(t *testing.T) {
	f := setup(t)

	body := &strings.Builder{}
	body.WriteString("--boundary\r\n")
	body.WriteString("Content-Disposition: form-data; name=\"file\"; filename=\"notes.txt\"\r\n")
	body.WriteString("Content-Type: text/plain\r\n\r\n")
	body.WriteString("hello\r\n")
	body.WriteString("--boundary--\r\n")

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(body.String()))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=boundary")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUploadRejectsGarbagePDF(t *testing.T) {
	f := setup(t)

	body := &strings.Builder{}
	body.WriteString("--boundary\r\n")
	body.WriteString("Content-Disposition: form-data; name=\"file\"; filename=\"junk.pdf\"\r\n")
	body.WriteString("Content-Type: application/pdf\r\n\r\n")
	body.WriteString("this is not a pdf\r\n")
	body.WriteString("--boundary--\r\n")

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(body.String()))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=boundary")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestPrintValidation(t *testing.T) {
	f := setup(t)

	if rec := f.do(t, http.MethodPost, "/api/print", "not json"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad body status = %d, want 400", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, "/api/print", `{"page_num": 1}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing file_id status = %d, want 400", rec.Code)
	}

	body := `{"file_id": "` + uuid.NewString() + `", "page_num": 1}`
	if rec := f.do(t, http.MethodPost, "/api/print", body); rec.Code != http.StatusNotFound {
		t.Errorf("unknown doc status = %d, want 404", rec.Code)
	}
}

func TestPreviewErrors(t *testing.T) {
	f := setup(t)
	doc := f.seed(t, "sheet.pdf", "E12345678901", 1)

	if rec := f.do(t, http.MethodGet, "/api/preview/"+uuid.NewString()+"/1", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown doc status = %d, want 404", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/preview/"+doc.ID.String()+"/0", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("page 0 status = %d, want 400", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/preview/"+doc.ID.String()+"/99", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("out of range status = %d, want 400", rec.Code)
	}
}

func TestPrintHistoryEmpty(t *testing.T) {
	f := setup(t)
	m := decode(t, f.do(t, http.MethodGet, "/api/history", ""))
	if m["success"] != true {
		t.Errorf("unexpected body: %v", m)
	}
	if history := m["history"].([]any); len(history) != 0 {
		t.Errorf("expected empty history, got %d entries", len(history))
	}
}

func TestExportReport(t *testing.T) {
	f := setup(t)
	f.seed(t, "sheet.pdf", "E12345678901", 1)

	rec := f.do(t, http.MethodGet, "/api/reports/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("content type = %q", ct)
	}
	if rec.Body.Len() == 0 {
		t.Error("empty report body")
	}
}

func TestCORSPreflight(t *testing.T) {
	f := setup(t)
	rec := f.do(t, http.MethodOptions, "/api/documents", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

// Package pdftext reads the text layer of label-sheet PDFs and splits
// single pages out for preview and printing. OCR of scanned bitmaps is
// out of scope: the text must be machine-extractable from the PDF.
package pdftext

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/ananthcjayan12/pdf-print-brady/internal/entity"
)

// Document wraps an opened PDF for per-page text extraction.
type Document struct {
	reader *pdf.Reader
}

// New opens a PDF from raw bytes. Failure to open the container at all
// is a hard error; the caller must not index anything from it. The pdf
// library panics on some truncated files, hence the recover.
func New(data []byte) (doc *Document, err error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", entity.ErrInvalidInput)
	}
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("%w: %v", entity.ErrUnreadablePDF, r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrUnreadablePDF, err)
	}
	return &Document{reader: r}, nil
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return d.reader.NumPage()
}

// PageText extracts the plain text of one page (1-based). Errors here
// are page-scoped: the caller skips the page and keeps going. The pdf
// library panics on some malformed content streams, so the recover is
// load-bearing.
func (d *Document) PageText(page int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("page %d: %v", page, r)
		}
	}()

	if page < 1 || page > d.reader.NumPage() {
		return "", fmt.Errorf("page %d out of range", page)
	}
	p := d.reader.Page(page)
	if p.V.IsNull() {
		return "", nil
	}
	text, err = p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("page %d: %w", page, err)
	}
	return text, nil
}

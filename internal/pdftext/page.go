package pdftext

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ExtractPage returns the given page (1-based) of a PDF as a standalone
// single-page PDF, suitable for preview in the browser or handing to the
// print system.
func ExtractPage(data []byte, page int) ([]byte, error) {
	if page < 1 {
		return nil, fmt.Errorf("invalid page number %d", page)
	}
	var buf bytes.Buffer
	if err := api.Trim(bytes.NewReader(data), &buf, []string{strconv.Itoa(page)}, nil); err != nil {
		return nil, fmt.Errorf("extract page %d: %w", page, err)
	}
	return buf.Bytes(), nil
}

package extract

import (
	"testing"

	"github.com/ananthcjayan12/pdf-print-brady/internal/catalog"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	return NewExtractor(catalog.Builtin(), nil)
}

func TestExtractEmptyPage(t *testing.T) {
	e := newTestExtractor(t)
	if got := e.Extract(""); got != nil {
		t.Errorf("expected nil for empty page, got %v", got)
	}
}

func TestExtractSingleSerial(t *testing.T) {
	e := newTestExtractor(t)

	cands := e.Extract("Product label\nS/N: E12345678901\nMade in DE")
	if len(cands) == 0 {
		t.Fatal("expected at least one candidate")
	}

	found := false
	for _, c := range cands {
		if c.Text == "E12345678901" {
			found = true
			if c.Confidence != 1.0 {
				t.Errorf("confidence = %v, want 1.0", c.Confidence)
			}
		}
	}
	if !found {
		t.Errorf("E12345678901 not among candidates: %v", cands)
	}
}

func TestExtractMultipleLabelsPerPage(t *testing.T) {
	e := newTestExtractor(t)

	// A sheet page carries several labels; every occurrence is reported.
	text := "S/N: E11111111111\nsome text\nS/N: E22222222222"
	cands := DedupeByText(e.Extract(text))

	texts := map[string]bool{}
	for _, c := range cands {
		texts[c.Text] = true
	}
	if !texts["E11111111111"] || !texts["E22222222222"] {
		t.Errorf("missing serials, got %v", cands)
	}
}

func TestExtractNoisyTextYieldsNothing(t *testing.T) {
	e := newTestExtractor(t)
	cands := e.Extract("lorem ipsum dolor sit amet, page 3 of 12")
	if len(cands) != 0 {
		t.Errorf("expected no candidates, got %v", cands)
	}
}

func TestDedupeByTextKeepsFirstSeenOrder(t *testing.T) {
	in := []Candidate{
		{Text: "A11111111", Type: "GENERIC_SN", spec: 70},
		{Text: "B22222222", Type: "GENERIC_SN", spec: 70},
		{Text: "A11111111", Type: "ALPHANUMERIC_ID", spec: 20},
	}
	out := DedupeByText(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(out))
	}
	if out[0].Text != "A11111111" || out[1].Text != "B22222222" {
		t.Errorf("order not preserved: %v", out)
	}
}

func TestDedupeByTextPrefersSpecificType(t *testing.T) {
	in := []Candidate{
		{Text: "E12345678901", Type: "ALPHANUMERIC_ID", spec: 20},
		{Text: "E12345678901", Type: "SN", spec: 80},
		{Text: "E12345678901", Type: "GENERIC_SN", spec: 70},
	}
	out := DedupeByText(in)
	if len(out) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(out))
	}
	if out[0].Type != "SN" {
		t.Errorf("type = %s, want SN", out[0].Type)
	}
}

func TestDedupeByTextEmpty(t *testing.T) {
	if got := DedupeByText(nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestExtractSameMarkUnderTwoRules(t *testing.T) {
	e := newTestExtractor(t)

	// "SN: ..." satisfies both GENERIC_SN variants; after dedup one
	// candidate remains.
	cands := DedupeByText(e.Extract("SN: ABCDEFGH123"))
	count := 0
	for _, c := range cands {
		if c.Text == "ABCDEFGH123" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one ABCDEFGH123 candidate, got %d (%v)", count, cands)
	}
}

package extract

import (
	"log/slog"

	"github.com/ananthcjayan12/pdf-print-brady/internal/catalog"
)

// Candidate is one identifier pulled out of page text. The same physical
// mark may surface as several candidates under different rules; identity
// deduplication happens later, keyed on Text.
type Candidate struct {
	Text       string  `json:"text"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`

	spec int // rule specificity, used only by DedupeByText
}

// Extractor applies the pattern catalog to one page's text.
type Extractor struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

func NewExtractor(c *catalog.Catalog, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{catalog: c, logger: logger}
}

// Extract runs every catalog rule over the full page text and collects
// every match. Empty input yields an empty result, never an error. A
// single rule may match multiple times (several labels per sheet page),
// and two rules may both report the same substring; both outcomes are
// intentional. Confidence is fixed at 1.0 for now.
func (e *Extractor) Extract(pageText string) []Candidate {
	if pageText == "" {
		return nil
	}

	var out []Candidate
	for _, rule := range e.catalog.Rules() {
		for _, m := range rule.Pattern.FindAllStringSubmatch(pageText, -1) {
			text, ok := rule.Extract(m)
			if !ok {
				continue
			}
			e.logger.Debug("candidate matched", "type", rule.Type, "text", text)
			out = append(out, Candidate{
				Text:       text,
				Type:       rule.Type,
				Confidence: 1.0,
				spec:       rule.Specificity,
			})
		}
	}
	return out
}

// DedupeByText reduces overlapping candidates to one per extracted text.
// First-seen order is kept; when several rules agree on the same text,
// the most specific type label wins the displayed type. This is an
// explicit reduction step rather than map-overwrite semantics so the
// merge is testable on its own.
func DedupeByText(cands []Candidate) []Candidate {
	if len(cands) == 0 {
		return nil
	}

	index := make(map[string]int, len(cands))
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		i, seen := index[c.Text]
		if !seen {
			index[c.Text] = len(out)
			out = append(out, c)
			continue
		}
		if c.spec > out[i].spec {
			out[i].Type = c.Type
			out[i].spec = c.spec
		}
	}
	return out
}

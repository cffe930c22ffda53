// Package resolver turns a scanned or typed query into the index entry
// for the page that carries it.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ananthcjayan12/pdf-print-brady/internal/catalog"
	"github.com/ananthcjayan12/pdf-print-brady/internal/entity"
	"github.com/ananthcjayan12/pdf-print-brady/internal/repository"
)

// Match is a successful resolution: the mapping plus the document it
// lives in. ExtractedSerial is set when the query was a raw carrier
// payload and the search ran on the serial pulled out of it.
type Match struct {
	Mapping         entity.Mapping  `json:"mapping"`
	Document        entity.Document `json:"document"`
	ExtractedSerial string          `json:"extracted_serial,omitempty"`
}

type Service struct {
	catalog  *catalog.Catalog
	mappings repository.MappingRepository
	docs     repository.DocumentRepository
	logger   *slog.Logger
}

func NewService(c *catalog.Catalog, mappings repository.MappingRepository, docs repository.DocumentRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{catalog: c, mappings: mappings, docs: docs, logger: logger}
}

// Resolve normalizes the query and searches the index: exact
// case-insensitive match first, then containment in either direction.
// A miss is (nil, nil), not an error. When the query is a full carrier
// payload the embedded serial is extracted first and the search runs on
// that, so an exact hit on the serial wins over any coincidental
// substring match on the raw payload.
func (s *Service) Resolve(ctx context.Context, query string) (*Match, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, fmt.Errorf("%w: empty query", entity.ErrInvalidInput)
	}

	extracted := ""
	if strings.HasPrefix(q, catalog.CarrierPrefix) {
		if serial, ok := s.extractFromCarrier(q); ok {
			s.logger.Info("extracted serial from carrier payload", "serial", serial)
			extracted = serial
			q = serial
		}
	}

	m, err := s.mappings.FindExact(ctx, q)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m, err = s.mappings.FindContaining(ctx, q)
		if err != nil {
			return nil, err
		}
	}
	if m == nil {
		s.logger.Info("identifier not found", "query", q)
		return nil, nil
	}

	doc, err := s.docs.GetByID(ctx, m.DocumentID)
	if err != nil {
		return nil, err
	}

	return &Match{Mapping: *m, Document: *doc, ExtractedSerial: extracted}, nil
}

// extractFromCarrier runs only the carrier-anchored catalog rules over
// the raw payload.
func (s *Service) extractFromCarrier(payload string) (string, bool) {
	for _, rule := range s.catalog.CarrierRules() {
		m := rule.Pattern.FindStringSubmatch(payload)
		if m == nil {
			continue
		}
		if serial, ok := rule.Extract(m); ok {
			return serial, true
		}
	}
	return "", false
}

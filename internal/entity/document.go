package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ananthcjayan12/pdf-print-brady/constants"
)

// Document represents an indexed label-sheet PDF for data transfer
// between layers.
type Document struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Path             string    `json:"path"`
	ContentHash      string    `json:"content_hash"`
	PageCount        int       `json:"page_count"`
	IdentifiersFound int       `json:"identifiers_found"`
	Processed        bool      `json:"processed"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// Mapping binds one extracted identifier to a page of a document.
// (document_id, identifier, page_number) is unique; re-extraction of the
// same identifier on the same page is a no-op.
type Mapping struct {
	ID         int64     `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	Identifier string    `json:"identifier"`
	PageNumber int       `json:"page_number"`
	Type       string    `json:"type"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}

// PrintJob records one attempt to print a mapped page.
type PrintJob struct {
	ID           uuid.UUID             `json:"id"`
	DocumentID   uuid.UUID             `json:"document_id"`
	DocumentName string                `json:"document_name"`
	Identifier   string                `json:"identifier"`
	PageNumber   int                   `json:"page_number"`
	Printer      string                `json:"printer"`
	Actor        string                `json:"actor"`
	Status       constants.PrintStatus `json:"status"`
	Message      string                `json:"message,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
}

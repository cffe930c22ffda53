package entity

import "errors"

// Sentinel errors shared across layers. Callers test with errors.Is.
var (
	// ErrNotFound is returned when a document or mapping does not exist.
	// A resolve miss is not an error and is reported as an absent result.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput covers rejected uploads: wrong file type, empty
	// payload, oversized file.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnreadablePDF means the PDF container could not be opened at
	// all. Single unreadable pages are skipped, not surfaced as this.
	ErrUnreadablePDF = errors.New("unreadable pdf")
)

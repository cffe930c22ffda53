package constants

// PrintStatus is the canonical status for rows in print_jobs.
type PrintStatus string

// Stable values (store these exact strings in DB).
const (
	PrintStatusSuccess PrintStatus = "SUCCESS" // handed off to the print system
	PrintStatusFailed  PrintStatus = "FAILED"  // terminal failure
)

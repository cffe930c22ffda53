package constants

import "strings"

// MaxUploadBytes caps a single label-sheet upload (50 MB).
const MaxUploadBytes = 50 * 1024 * 1024

// MinIdentifierLen is the noise floor: extracted identifiers shorter
// than this are discarded.
const MinIdentifierLen = 6

// AllowedExtensions holds the file extensions accepted for indexing.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether a normalized extension may be indexed.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

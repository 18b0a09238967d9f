package errors

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// maxIDLength bounds framework, control and resource identifiers.
const maxIDLength = 64

// idRegex matches catalog identifiers such as "iso27001", "GOV-01" or
// "pci_dss.v4".
var idRegex = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)

// ValidateID validates a catalog identifier received from user input.
//
// The rules are intentionally conservative:
//   - No empty IDs
//   - Maximum length of 64 characters
//   - ASCII letters, digits, '.', '_' and '-' only
//   - Must start and end with a letter or digit
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "id cannot be empty")
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "id too long (max %d characters)", maxIDLength)
	}
	if !idRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid id: %q", id)
	}
	return nil
}

// maxQueryLength bounds free-text search queries.
const maxQueryLength = 200

// ValidateQuery validates a free-text resource search query.
// Empty queries are valid and match everything.
func ValidateQuery(q string) error {
	if len(q) > maxQueryLength {
		return New(ErrCodeInvalidInput, "query too long (max %d characters)", maxQueryLength)
	}
	for _, r := range q {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "query contains invalid control characters")
		}
	}
	return nil
}

// ValidateCatalogPath validates a catalog file path given on the command line
// or in configuration. Only the extension and basic hygiene are checked; the
// file itself is opened by the caller.
func ValidateCatalogPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "catalog path cannot be empty")
	}
	if strings.ContainsRune(path, '\x00') {
		return New(ErrCodeInvalidInput, "catalog path contains invalid characters")
	}
	lower := strings.ToLower(path)
	for _, ext := range []string{".toml", ".yaml", ".yml", ".json"} {
		if strings.HasSuffix(lower, ext) {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unsupported catalog format: %s (want .toml, .yaml or .json)", path)
}

// MaxViewportSide bounds each viewport dimension accepted from clients.
const MaxViewportSide = 16384

// ValidateViewport validates client-supplied viewport dimensions.
func ValidateViewport(width, height float64) error {
	for _, v := range []float64{width, height} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return New(ErrCodeInvalidViewport, "viewport must be positive and finite, got %gx%g", width, height)
		}
		if v > MaxViewportSide {
			return New(ErrCodeInvalidViewport, "viewport too large (max %d per side)", MaxViewportSide)
		}
	}
	return nil
}

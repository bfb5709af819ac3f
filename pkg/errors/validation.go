package errors

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// ValidateObjectID validates a celestial object identifier.
//
// The rules are intentionally conservative so that IDs are safe to use as
// cache key components, DOT node names and URL path segments:
//   - No empty IDs
//   - No control characters or whitespace
//   - Maximum length of 128 characters
func ValidateObjectID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "object id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "object id too long (max 128 characters): %q", id[:32]+"...")
	}

	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "object id contains invalid characters: %q", id)
		}
	}

	return nil
}

// catalogNameRegex matches catalog names usable in file names and URLs.
var catalogNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// ValidateCatalogName validates the name of a stored object catalog.
func ValidateCatalogName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "catalog name cannot be empty")
	}
	if len(name) > 64 {
		return New(ErrCodeInvalidInput, "catalog name too long (max 64 characters)")
	}
	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidInput, "catalog name cannot contain path traversal sequences (..)")
	}
	if !catalogNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid catalog name: %q", name)
	}
	return nil
}

// ValidatePositive checks that a configuration value is a finite number > 0.
func ValidatePositive(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return New(ErrCodeInvalidConfig, "%s must be > 0, got %v", field, v)
	}
	return nil
}

// ValidateRange checks that lo < hi, both finite.
func ValidateRange(field string, lo, hi float64) error {
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return New(ErrCodeInvalidConfig, "%s bounds must be finite", field)
	}
	if lo >= hi {
		return New(ErrCodeInvalidConfig, "%s: min (%v) must be less than max (%v)", field, lo, hi)
	}
	return nil
}

// ValidateWithin checks that lo <= v <= hi.
func ValidateWithin(field string, v, lo, hi float64) error {
	if math.IsNaN(v) || v < lo || v > hi {
		return New(ErrCodeInvalidConfig, "%s must be within [%v, %v], got %v", field, lo, hi, v)
	}
	return nil
}

// ValidateAtLeast checks that v >= min.
func ValidateAtLeast(field string, v, min float64) error {
	if math.IsNaN(v) || v < min {
		return New(ErrCodeInvalidConfig, "%s must be >= %v, got %v", field, min, v)
	}
	return nil
}

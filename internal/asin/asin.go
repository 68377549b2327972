// file: internal/asin/asin.go
// version: 1.0.0
// guid: 3f7a1b2c-9d4e-4f8a-b1c2-d3e4f5a6b7c8

package asin

import (
	"regexp"
	"strings"
)

// Amazon catalog ASINs are ten characters: a leading 'B' followed by nine
// alphanumerics. Plain ten-digit strings are ISBN-10s, not ASINs, even though
// Amazon accepts them in /dp/ URLs.
var asinPattern = regexp.MustCompile(`^B[0-9A-Z]{9}$`)

// Normalize trims surrounding whitespace and uppercases an identifier
// candidate so that validation and cache keys are case-insensitive.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Valid reports whether s is a well-formed ASIN. Case-insensitive.
func Valid(s string) bool {
	return asinPattern.MatchString(Normalize(s))
}

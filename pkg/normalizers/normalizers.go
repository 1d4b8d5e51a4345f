// Package normalizers provides the field normalization used when comparing
// file values against internal values.
package normalizers

import "strings"

// Fold prepares a free-text field for comparison: trim, lowercase.
func Fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// StripLeadingZeros trims whitespace and leading zeros. Provider files and
// the internal system disagree on zero padding for lote and cupon numbers.
func StripLeadingZeros(s string) string {
	return strings.TrimLeft(strings.TrimSpace(s), "0")
}

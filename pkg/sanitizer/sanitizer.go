// Package sanitizer normalizes user-supplied strings before validation
// and storage.
package sanitizer

import "strings"

// NormalizeEmail lowercases and trims an email address so lookups are
// case-insensitive without database collation tricks.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// TrimSpace collapses surrounding whitespace.
func TrimSpace(s string) string {
	return strings.TrimSpace(s)
}

// TrimToNil trims the value and returns nil for the empty result, mapping
// blank form inputs to SQL NULL for nullable columns.
func TrimToNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

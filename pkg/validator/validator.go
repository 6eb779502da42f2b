// Package validator provides rule-based request validation producing
// structured per-field errors suitable for HTTP 400 responses.
package validator

import (
	"fmt"
	"strings"
)

// ValidationError describes one failed rule on one field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects every failed rule of one Apply pass.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}

	parts := make([]string, 0, len(ve))
	for _, e := range ve {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the distinct field names that failed.
func (ve ValidationErrors) Fields() []string {
	seen := make(map[string]bool, len(ve))
	var fields []string
	for _, e := range ve {
		if !seen[e.Field] {
			seen[e.Field] = true
			fields = append(fields, e.Field)
		}
	}
	return fields
}

// Rule is a single validation check with its failure description.
type Rule struct {
	Check func() bool
	Error ValidationError
}

// Apply runs every rule and returns the collected failures, or nil when
// all pass. Rules are evaluated unconditionally so the caller gets the
// full set of field errors in one pass.
func Apply(rules ...Rule) error {
	var errs ValidationErrors
	for _, rule := range rules {
		if !rule.Check() {
			errs = append(errs, rule.Error)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Extract pulls ValidationErrors out of an error chain, or nil.
func Extract(err error) ValidationErrors {
	if err == nil {
		return nil
	}
	if ve, ok := err.(ValidationErrors); ok {
		return ve
	}
	return nil
}

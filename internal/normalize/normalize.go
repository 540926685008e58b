// Package normalize canonicalizes user-supplied identifiers before they are
// stored or compared.
package normalize

import "strings"

// Email returns a normalized form of an email address suitable for
// storage and comparisons. Normalization trims surrounding whitespace and
// lower-cases the address; the role synchronizer joins on this form.
func Email(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// Role returns the canonical spelling of a role name ("  Mentor " -> "mentor").
// It does not check the value against the known roles.
func Role(r string) string {
	return strings.ToLower(strings.TrimSpace(r))
}

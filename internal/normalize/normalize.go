// Package normalize canonicalizes the identifiers that form the match key.
// The same functions are applied to statement entries and purchase records
// before any comparison, so equivalent identifiers compare equal regardless
// of how they were formatted at the source.
package normalize

import "strings"

// InvoiceNumber strips whitespace and non-alphanumeric separators and
// upper-cases the remainder. Total and idempotent: any input, including the
// empty string, yields a stable result.
func InvoiceNumber(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - ('a' - 'A'))
		}
	}
	return b.String()
}

// GSTIN canonicalizes a vendor tax identifier: trims surrounding space and
// upper-cases. GSTINs are already alphanumeric, so no separator stripping.
func GSTIN(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// MatchKey builds the lookup key shared by the deterministic pass and the
// re-upload carry-forward: normalized GSTIN plus normalized invoice number.
func MatchKey(gstin, invoiceNumber string) string {
	return GSTIN(gstin) + "|" + InvoiceNumber(invoiceNumber)
}

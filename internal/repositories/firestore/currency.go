package firestore

import (
	"strings"

	"golang.org/x/text/currency"
)

// normalizeCurrency canonicalises an ISO-4217 code at the decode boundary.
// Codes that fail to parse are passed through uppercased rather than
// rejecting the read; pricing validation belongs to the write path.
func normalizeCurrency(code string) string {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		return ""
	}
	unit, err := currency.ParseISO(trimmed)
	if err != nil {
		return trimmed
	}
	return unit.String()
}

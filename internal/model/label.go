package model

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeLabel canonicalizes a field label for comparison: NFKC
// normalization (collapses full-width and ligature forms detectors sometimes
// emit), whitespace trim, lowercase.
func NormalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(s)))
}

// LabelsEqual reports whether two labels match after normalization.
func LabelsEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return NormalizeLabel(a) == NormalizeLabel(b)
}

package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeNeighborhood folds a neighborhood name for comparison: accents are
// stripped, case is lowered and inner whitespace collapsed.
func NormalizeNeighborhood(raw string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), raw)
	if err != nil {
		folded = raw
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

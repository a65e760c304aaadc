package shared

import (
	"strings"

	"golang.org/x/text/cases"
)

// FoldKey returns the uniqueness key of a name, SKU or code. Keys compare
// equal when the inputs differ only in case, including full Unicode folding
// ("STRASSE" and "straße" share a key).
func FoldKey(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}

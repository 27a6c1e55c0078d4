package core

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// lowercaser folds item names with Norwegian rules so that keys built
// from æ/ø/å vocabulary compare the same across receipts.
var lowercaser = cases.Lower(language.Norwegian)

// CanonicalItemKey identifies "the same product" across orders: the
// general name when the extractor provided one, otherwise the raw
// name, case-folded.
func CanonicalItemKey(item ReceiptItem) string {
	name := item.GeneralName
	if name == "" {
		name = item.RawName
	}
	return FoldItemName(name)
}

// FoldItemName lowercases an item name for key comparison
func FoldItemName(name string) string {
	return lowercaser.String(strings.TrimSpace(name))
}

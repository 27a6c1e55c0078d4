package core

import (
	"regexp"
	"strings"
)

// itemsBlockWindow bounds the fallback slice taken when a receipt has a
// start marker but no summary marker, so a pathological body cannot
// blow up downstream parsing.
const itemsBlockWindow = 3000

var (
	subjectOrderNumberPattern = regexp.MustCompile(`(?i)Oda:\s*Kvittering\s+(\w+)`)
	photoOrderNumberPattern   = regexp.MustCompile(`(?i)(?:Ordre\s*nr|Bestillingsnummer|#)([a-zA-Z0-9]+)`)

	orderedItemsPattern = regexp.MustCompile(`(?i)Bestilte varer|Ordered Items`)
	summaryPattern      = regexp.MustCompile(`(?i)Summary|Total|Oppsummering`)

	weightPattern   = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?\s*(?:g|kg|ml|l|stk))\b|(\d+\s+stk)\b`)
	bareUnitPattern = regexp.MustCompile(`(?i)^(?:grams|kg|ml|piece|g)$`)
)

// ExtractOrderNumber pulls the order number out of a receipt email
// subject line. Returns false if the subject carries no vendor marker.
func ExtractOrderNumber(subject string) (string, bool) {
	m := subjectOrderNumberPattern.FindStringSubmatch(subject)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// ExtractPhotoOrderNumber pulls the order number out of OCR'd receipt
// text, which labels it differently from the email subject.
func ExtractPhotoOrderNumber(text string) (string, bool) {
	m := photoOrderNumberPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ExtractItemsBlock returns the line-item section of a receipt body:
// the text between an "ordered items" marker and a "summary/total"
// marker. Malformed input yields an empty string, never an error:
// a missing start marker means there is nothing to parse, a missing
// end marker falls back to a bounded window after the start, and
// markers in the wrong order are treated as no block at all.
func ExtractItemsBlock(content string) string {
	startLoc := orderedItemsPattern.FindStringIndex(content)
	if startLoc == nil {
		return ""
	}

	endLoc := summaryPattern.FindStringIndex(content)
	if endLoc == nil {
		end := startLoc[1] + itemsBlockWindow
		if end > len(content) {
			end = len(content)
		}
		return strings.TrimSpace(content[startLoc[1]:end])
	}

	if startLoc[1] >= endLoc[0] {
		return ""
	}

	// Line items start on the line after the marker. If the marker's
	// line has no break before the summary, fall back to the marker end.
	itemsStart := strings.IndexByte(content[startLoc[0]:], '\n')
	if itemsStart == -1 || startLoc[0]+itemsStart > endLoc[0] {
		itemsStart = startLoc[1]
	} else {
		itemsStart = startLoc[0] + itemsStart + 1
	}

	return strings.TrimSpace(content[itemsStart:endLoc[0]])
}

// ExtractWeightFromName scans a product name for a weight or volume
// marking such as "125 g", "1,1 kg", "500 ml" or "6 stk". Returns
// false when the name carries none.
func ExtractWeightFromName(productName string) (string, bool) {
	m := weightPattern.FindString(productName)
	if m == "" {
		return "", false
	}
	return strings.TrimSpace(m), true
}

// isBareUnit reports whether a weight value is only a unit word with no
// magnitude, e.g. "g" or "piece".
func isBareUnit(weight string) bool {
	return bareUnitPattern.MatchString(weight)
}

package core

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Shared compiled patterns; immutable after init, safe for concurrent use.
var (
	weekdayPattern = regexp.MustCompile(`søndag|mandag|tirsdag|onsdag|torsdag|fredag|lørdag`)
	timeMarkerPattern = regexp.MustCompile(`kl\.?\s*`)

	numericDatePattern = regexp.MustCompile(`(\d{1,2})[./-](\d{1,2})[./-](\d{4})(?:\s+(\d{1,2}:\d{2}))?`)
	namedDatePattern   = regexp.MustCompile(`(\d{1,2})\.?\s*(\p{L}+) +(\d{4})`)
	isoDatePattern     = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
)

// monthNames maps lowercased Norwegian and English month names to their
// number. Names spelled the same in both languages appear once.
var monthNames = map[string]time.Month{
	"januar":    time.January,
	"january":   time.January,
	"februar":   time.February,
	"february":  time.February,
	"mars":      time.March,
	"march":     time.March,
	"april":     time.April,
	"mai":       time.May,
	"may":       time.May,
	"juni":      time.June,
	"june":      time.June,
	"juli":      time.July,
	"july":      time.July,
	"august":    time.August,
	"september": time.September,
	"oktober":   time.October,
	"october":   time.October,
	"november":  time.November,
	"desember":  time.December,
	"december":  time.December,
}

// ParseReceiptDate extracts a purchase date from free-form receipt text.
// Strategies are tried in fixed priority order: numeric day-first form,
// named-month form against the bilingual table, then ISO as a last
// resort. Returns false when nothing matched; callers must skip the
// record rather than substitute a default date.
func ParseReceiptDate(text string) (time.Time, bool) {
	text = normalizeDateText(text)

	if m := numericDatePattern.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		return makeDate(year, month, day)
	}

	if m := namedDatePattern.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		if month, ok := monthNames[m[2]]; ok {
			return makeDate(year, int(month), day)
		}
		// Unknown month name: the named-month strategy fails outright,
		// it never guesses.
	}

	if m := isoDatePattern.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return makeDate(year, month, day)
	}

	return time.Time{}, false
}

// normalizeDateText lowercases the text and strips the tokens that
// commonly surround dates on Norwegian receipts: commas, weekday names
// and the "kl." time marker.
func normalizeDateText(text string) string {
	text = strings.ToLower(text)
	text = strings.ReplaceAll(text, ",", "")
	text = timeMarkerPattern.ReplaceAllString(text, "")
	text = weekdayPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// makeDate builds a UTC date and rejects impossible calendar values
// (month 13, February 31) instead of letting them normalize.
func makeDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || d.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return d, true
}

package core

import (
	"sort"
	"time"
)

// checkNowThresholdDays is how long an item can go unpurchased before
// it is flagged for a pantry check regardless of its usual cadence.
const checkNowThresholdDays = 45

// CadenceEngine derives restock suggestions from per-item purchase
// history. It is a pure function of the history and the clock; running
// it twice over unchanged history yields the identical set.
type CadenceEngine struct {
	clock Clock
}

// NewCadenceEngine creates a cadence engine. A nil clock means wall time.
func NewCadenceEngine(clock Clock) *CadenceEngine {
	if clock == nil {
		clock = ClockFunc(time.Now)
	}
	return &CadenceEngine{clock: clock}
}

// Suggest classifies every item with at least two distinct purchase
// dates into a suggestion category. Items purchased fewer than twice
// are skipped: one date gives no interval to reason about.
//
// The three rules are evaluated in a fixed order and each later rule
// overwrites an earlier assignment. This last-write-wins ordering is
// deliberate and load-bearing: an item can qualify as CHECK_NOW and
// still end up BUY_NOW.
func (e *CadenceEngine) Suggest(history []PurchaseHistoryEntry) []Suggestion {
	today := dayOf(e.clock.Now())

	byKey := make(map[string][]time.Time)
	for _, entry := range history {
		byKey[entry.ItemKey] = append(byKey[entry.ItemKey], dayOf(entry.PurchaseDate))
	}

	suggestions := make([]Suggestion, 0, len(byKey))
	for key, dates := range byKey {
		dates = distinctSorted(dates)
		if len(dates) < 2 {
			continue
		}

		var gapSum int64
		for i := 1; i < len(dates); i++ {
			gapSum += daysBetween(dates[i-1], dates[i])
		}
		avgGap := gapSum / int64(len(dates)-1)

		last := dates[len(dates)-1]
		daysSinceLast := daysBetween(last, today)
		overage := avgGap - daysSinceLast

		var category SuggestionCategory

		if daysSinceLast > checkNowThresholdDays {
			category = CheckNow
		}
		if daysSinceLast >= avgGap*2 || (overage >= 4 && overage <= 5) {
			category = LowStock
		}
		if daysSinceLast >= avgGap {
			category = BuyNow
		}

		if category != "" {
			suggestions = append(suggestions, Suggestion{
				ItemKey:          key,
				LastPurchaseDate: last,
				Category:         category,
			})
		}
	}

	sort.Slice(suggestions, func(i, j int) bool {
		return suggestions[i].ItemKey < suggestions[j].ItemKey
	})
	return suggestions
}

// distinctSorted returns the unique dates in ascending order
func distinctSorted(dates []time.Time) []time.Time {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	out := dates[:0]
	for i, d := range dates {
		if i == 0 || !d.Equal(out[len(out)-1]) {
			out = append(out, d)
		}
	}
	return out
}

// dayOf truncates a timestamp to its UTC calendar day
func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween counts whole days from a to b
func daysBetween(a, b time.Time) int64 {
	return int64(b.Sub(a) / (24 * time.Hour))
}

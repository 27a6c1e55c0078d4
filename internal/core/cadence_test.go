package core

import (
	"reflect"
	"testing"
	"time"
)

// fixedClock pins "today" so the rules are deterministic
func fixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// historyFor builds entries for one key purchased on the given days
func historyFor(key string, dates ...time.Time) []PurchaseHistoryEntry {
	entries := make([]PurchaseHistoryEntry, 0, len(dates))
	for _, d := range dates {
		entries = append(entries, PurchaseHistoryEntry{ItemKey: key, PurchaseDate: d})
	}
	return entries
}

func TestCadenceSkipsSparseHistory(t *testing.T) {
	today := date(2025, time.June, 1)
	engine := NewCadenceEngine(fixedClock(today))

	t.Run("single purchase", func(t *testing.T) {
		got := engine.Suggest(historyFor("melk", date(2025, time.January, 1)))
		if len(got) != 0 {
			t.Fatalf("got %d suggestions, want 0", len(got))
		}
	})

	t.Run("two purchases on the same day collapse to one", func(t *testing.T) {
		d := date(2025, time.January, 1)
		got := engine.Suggest(historyFor("melk", d, d))
		if len(got) != 0 {
			t.Fatalf("got %d suggestions, want 0", len(got))
		}
	})

	t.Run("empty history", func(t *testing.T) {
		if got := engine.Suggest(nil); len(got) != 0 {
			t.Fatalf("got %d suggestions, want 0", len(got))
		}
	})
}

func TestCadenceRulePrecedence(t *testing.T) {
	// avgGap 10: purchases 10 days apart; "today" adjusts daysSinceLast.
	base := date(2025, time.January, 1)
	history := historyFor("melk", base, base.AddDate(0, 0, 10))
	last := base.AddDate(0, 0, 10)

	tests := []struct {
		name          string
		daysSinceLast int
		want          SuggestionCategory
		none          bool
	}{
		{
			// daysSinceLast >= 2*avgGap fires LOW_STOCK, then
			// daysSinceLast >= avgGap overwrites with BUY_NOW.
			name:          "buy now overwrites low stock",
			daysSinceLast: 20,
			want:          BuyNow,
		},
		{
			name:          "below average gap yields nothing",
			daysSinceLast: 9,
			none:          true,
		},
		{
			name:          "at average gap",
			daysSinceLast: 10,
			want:          BuyNow,
		},
		{
			// Overage window (avgGap-daysSinceLast in 4..5) fires
			// LOW_STOCK without reaching the BUY_NOW rule.
			name:          "low stock from overage window",
			daysSinceLast: 5,
			want:          LowStock,
		},
		{
			name:          "overage window lower bound",
			daysSinceLast: 6,
			want:          LowStock,
		},
		{
			name:          "just outside overage window",
			daysSinceLast: 7,
			none:          true,
		},
		{
			// 46 days: CHECK_NOW fires first, then both later rules
			// also hold and BUY_NOW wins.
			name:          "long neglect still ends as buy now",
			daysSinceLast: 46,
			want:          BuyNow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			today := last.AddDate(0, 0, tt.daysSinceLast)
			engine := NewCadenceEngine(fixedClock(today))
			got := engine.Suggest(history)

			if tt.none {
				if len(got) != 0 {
					t.Fatalf("got %d suggestions, want 0", len(got))
				}
				return
			}
			if len(got) != 1 {
				t.Fatalf("got %d suggestions, want 1", len(got))
			}
			if got[0].Category != tt.want {
				t.Errorf("category = %s, want %s", got[0].Category, tt.want)
			}
			if !got[0].LastPurchaseDate.Equal(last) {
				t.Errorf("last purchase = %v, want %v", got[0].LastPurchaseDate, last)
			}
		})
	}
}

func TestCadenceCheckNowForLargeAverageGap(t *testing.T) {
	// avgGap 60 keeps the BUY_NOW and LOW_STOCK rules quiet at 50 days
	// since last purchase, so CHECK_NOW survives.
	base := date(2025, time.January, 1)
	history := historyFor("kaffe", base, base.AddDate(0, 0, 60))
	today := base.AddDate(0, 0, 60+50)

	engine := NewCadenceEngine(fixedClock(today))
	got := engine.Suggest(history)
	if len(got) != 1 {
		t.Fatalf("got %d suggestions, want 1", len(got))
	}
	if got[0].Category != CheckNow {
		t.Errorf("category = %s, want %s", got[0].Category, CheckNow)
	}
}

func TestCadenceAverageGapFloors(t *testing.T) {
	// Gaps 10 and 11: mean 10.5 floors to 10, so 10 days since last
	// already triggers BUY_NOW.
	base := date(2025, time.January, 1)
	history := historyFor("ost",
		base,
		base.AddDate(0, 0, 10),
		base.AddDate(0, 0, 21),
	)
	today := base.AddDate(0, 0, 21+10)

	engine := NewCadenceEngine(fixedClock(today))
	got := engine.Suggest(history)
	if len(got) != 1 || got[0].Category != BuyNow {
		t.Fatalf("got %+v, want one BUY_NOW suggestion", got)
	}
}

func TestCadenceIdempotent(t *testing.T) {
	base := date(2025, time.January, 1)
	history := append(
		historyFor("melk", base, base.AddDate(0, 0, 7), base.AddDate(0, 0, 14)),
		historyFor("brød", base, base.AddDate(0, 0, 30))...,
	)
	engine := NewCadenceEngine(fixedClock(date(2025, time.March, 1)))

	first := engine.Suggest(history)
	second := engine.Suggest(history)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("suggestion sets differ between runs:\n%+v\n%+v", first, second)
	}
	if len(first) == 0 {
		t.Error("expected suggestions from this history")
	}
}

func TestCadenceMultipleKeys(t *testing.T) {
	base := date(2025, time.January, 1)
	history := append(
		// avgGap 10, 20 days since last -> BUY_NOW
		historyFor("melk", base, base.AddDate(0, 0, 10)),
		// one purchase only -> skipped
		PurchaseHistoryEntry{ItemKey: "sjokolade", PurchaseDate: base},
	)
	today := base.AddDate(0, 0, 30)

	engine := NewCadenceEngine(fixedClock(today))
	got := engine.Suggest(history)
	if len(got) != 1 {
		t.Fatalf("got %d suggestions, want 1", len(got))
	}
	if got[0].ItemKey != "melk" {
		t.Errorf("item key = %q, want %q", got[0].ItemKey, "melk")
	}
}

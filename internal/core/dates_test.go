package core

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseReceiptDate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want time.Time
		ok   bool
	}{
		{
			name: "numeric with time",
			text: "15.03.2024 14:30",
			want: date(2024, time.March, 15),
			ok:   true,
		},
		{
			name: "numeric with slashes",
			text: "Dato: 5/11/2023",
			want: date(2023, time.November, 5),
			ok:   true,
		},
		{
			name: "norwegian named month",
			text: "3. januar 2025",
			want: date(2025, time.January, 3),
			ok:   true,
		},
		{
			name: "english named month",
			text: "12. May 2024",
			want: date(2024, time.May, 12),
			ok:   true,
		},
		{
			name: "weekday prefix stripped",
			text: "mandag 5. mai 2025",
			want: date(2025, time.May, 5),
			ok:   true,
		},
		{
			name: "time marker and comma stripped",
			text: "Fakturadato tirsdag 4. mars 2025, kl. 09:15",
			want: date(2025, time.March, 4),
			ok:   true,
		},
		{
			name: "iso fallback",
			text: "2024-11-02",
			want: date(2024, time.November, 2),
			ok:   true,
		},
		{
			name: "iso embedded in prose",
			text: "Levert 2023-07-19 til døren",
			want: date(2023, time.July, 19),
			ok:   true,
		},
		{
			name: "numeric preferred over named",
			text: "01.02.2024 og 3. januar 2025",
			want: date(2024, time.February, 1),
			ok:   true,
		},
		{
			name: "unknown month name",
			text: "3. foobar 2025",
			ok:   false,
		},
		{
			name: "impossible calendar day",
			text: "31.02.2024",
			ok:   false,
		},
		{
			name: "month out of range",
			text: "10.13.2024",
			ok:   false,
		},
		{
			name: "no date at all",
			text: "Takk for handelen!",
			ok:   false,
		},
		{
			name: "empty text",
			text: "",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseReceiptDate(tt.text)
			if ok != tt.ok {
				t.Fatalf("ParseReceiptDate(%q) ok = %v, want %v", tt.text, ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParseReceiptDate(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseReceiptDateUnknownMonthDoesNotGuess(t *testing.T) {
	// The named-month strategy must fail on an unknown name even when
	// an ISO date appears later; the ISO strategy then picks it up.
	got, ok := ParseReceiptDate("3. foobar 2025 levert 2025-06-01")
	if !ok {
		t.Fatal("expected ISO fallback to match")
	}
	if want := date(2025, time.June, 1); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

package core

import (
	"strings"
	"testing"
)

func TestExtractOrderNumber(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		want    string
		ok      bool
	}{
		{"standard subject", "Oda: Kvittering A12345", "A12345", true},
		{"case insensitive", "oda: kvittering xyz99", "xyz99", true},
		{"extra spacing", "Oda:   Kvittering   B777", "B777", true},
		{"no marker", "Din ordre er levert", "", false},
		{"marker without number", "Oda: Kvittering", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractOrderNumber(tt.subject)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ExtractOrderNumber(%q) = (%q, %v), want (%q, %v)",
					tt.subject, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestExtractPhotoOrderNumber(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"Ordre nr 12AB34", "12AB34", true},
		{"Bestillingsnummer 998877", "998877", true},
		{"Ref #K421", "K421", true},
		{"ingen referanse her", "", false},
	}
	for _, tt := range tests {
		got, ok := ExtractPhotoOrderNumber(tt.text)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ExtractPhotoOrderNumber(%q) = (%q, %v), want (%q, %v)",
				tt.text, got, ok, tt.want, tt.ok)
		}
	}
}

func TestExtractItemsBlock(t *testing.T) {
	t.Run("between markers", func(t *testing.T) {
		content := "Takk for bestillingen!\nOrdered items\nApple 3 kr20\nMilk 1 kr15\nSummary\nTotal kr35"
		want := "Apple 3 kr20\nMilk 1 kr15"
		if got := ExtractItemsBlock(content); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("norwegian markers", func(t *testing.T) {
		content := "Bestilte varer\nMelk 1 kr25\nOppsummering\nkr25"
		want := "Melk 1 kr25"
		if got := ExtractItemsBlock(content); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("no start marker", func(t *testing.T) {
		if got := ExtractItemsBlock("Melk 1 kr25\nTotal kr25"); got != "" {
			t.Errorf("got %q, want empty", got)
		}
	})

	t.Run("no end marker takes bounded window", func(t *testing.T) {
		items := strings.Repeat("Vare 1 kr10\n", 500) // well past the window
		content := "Ordered items\n" + items
		got := ExtractItemsBlock(content)
		if got == "" {
			t.Fatal("expected a fallback window, got empty")
		}
		if len(got) > itemsBlockWindow {
			t.Errorf("window not bounded: got %d bytes, limit %d", len(got), itemsBlockWindow)
		}
	})

	t.Run("short tail without end marker", func(t *testing.T) {
		got := ExtractItemsBlock("Ordered items\nMelk 1 kr25")
		if got != "Melk 1 kr25" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("end marker before start marker", func(t *testing.T) {
		if got := ExtractItemsBlock("Total kr35\nOrdered items\nMelk 1"); got != "" {
			t.Errorf("got %q, want empty", got)
		}
	})
}

func TestExtractWeightFromName(t *testing.T) {
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"Bringebær 125 g", "125 g", true},
		{"Jarlsberg 1,1 kg", "1,1 kg", true},
		{"Cola 1.5 l", "1.5 l", true},
		{"Egg 6 stk", "6 stk", true},
		{"Tørkerull 500 ml", "500 ml", true},
		{"Banan økologisk", "", false},
	}
	for _, tt := range tests {
		got, ok := ExtractWeightFromName(tt.name)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ExtractWeightFromName(%q) = (%q, %v), want (%q, %v)",
				tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

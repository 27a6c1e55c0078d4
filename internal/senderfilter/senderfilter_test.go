package senderfilter

import "testing"

func TestChecker(t *testing.T) {
	t.Run("empty list allows everything", func(t *testing.T) {
		c := NewChecker(nil, nil)
		if !c.Allowed("anyone@example.com") {
			t.Error("empty filter must allow all senders")
		}
	})

	t.Run("configured list", func(t *testing.T) {
		c := NewChecker([]string{" Oda.com ", "kolonial.no"}, nil)
		tests := []struct {
			from string
			want bool
		}{
			{"kvittering@oda.com", true},
			{"noreply@ODA.COM", true},
			{"news@kolonial.no", true},
			{"spam@other.com", false},
			{"not-an-address", false},
			{"a@b@c", false},
		}
		for _, tt := range tests {
			if got := c.Allowed(tt.from); got != tt.want {
				t.Errorf("Allowed(%q) = %v, want %v", tt.from, got, tt.want)
			}
		}
	})
}

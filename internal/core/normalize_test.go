package core

import (
	"testing"
)

func TestExtractJSONPayload(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "bare object",
			content: `{"products_list": []}`,
			want:    `{"products_list": []}`,
		},
		{
			name:    "json fence",
			content: "Here you go:\n```json\n{\"products_list\": []}\n```\nEnjoy!",
			want:    "\n{\"products_list\": []}\n",
		},
		{
			name:    "plain fence",
			content: "```\n[1, 2]\n```",
			want:    "\n[1, 2]\n",
		},
		{
			name:    "prose only",
			content: "I could not find any items.",
			want:    "[]",
		},
		{
			name:    "mismatched brackets",
			content: "{\"products_list\": [",
			want:    "[]",
		},
		{
			name:    "empty",
			content: "",
			want:    "[]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSONPayload(tt.content); got != tt.want {
				t.Errorf("ExtractJSONPayload(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

func TestParseCandidateItems(t *testing.T) {
	t.Run("envelope", func(t *testing.T) {
		response := "```json\n" + `{
			"products_list": [
				{"product_name": "Melk", "quantity": 2, "weight": "1 l", "general_name": "Milk", "food_type": "Dairy"},
				{"product_name": "Egg", "quantity": "1", "weight": "6 stk"}
			]
		}` + "\n```"
		items := ParseCandidateItems(response)
		if len(items) != 2 {
			t.Fatalf("got %d items, want 2", len(items))
		}
		if items[0].ProductName != "Melk" || items[0].GeneralName != "Milk" {
			t.Errorf("unexpected first item: %+v", items[0])
		}
	})

	t.Run("bare array", func(t *testing.T) {
		items := ParseCandidateItems(`[{"product_name": "Brød"}]`)
		if len(items) != 1 || items[0].ProductName != "Brød" {
			t.Fatalf("unexpected items: %+v", items)
		}
	})

	t.Run("malformed element dropped", func(t *testing.T) {
		items := ParseCandidateItems(`[{"product_name": "Melk"}, 42, {"product_name": "Egg"}]`)
		if len(items) != 2 {
			t.Fatalf("got %d items, want 2", len(items))
		}
	})

	t.Run("prose yields empty", func(t *testing.T) {
		if items := ParseCandidateItems("sorry, no items found"); len(items) != 0 {
			t.Fatalf("got %d items, want 0", len(items))
		}
	})
}

func TestNormalizeItems(t *testing.T) {
	t.Run("bare unit weight recovered from name", func(t *testing.T) {
		items := NormalizeItems([]CandidateItem{
			{ProductName: "Bringebær 125 g", Weight: "g"},
		})
		if len(items) != 1 {
			t.Fatalf("got %d items, want 1", len(items))
		}
		if items[0].WeightOrVolume != "125 g" {
			t.Errorf("WeightOrVolume = %q, want %q", items[0].WeightOrVolume, "125 g")
		}
	})

	t.Run("bare unit kept when name has no weight", func(t *testing.T) {
		items := NormalizeItems([]CandidateItem{
			{ProductName: "Bringebær", Weight: "g"},
		})
		if items[0].WeightOrVolume != "g" {
			t.Errorf("WeightOrVolume = %q, want %q", items[0].WeightOrVolume, "g")
		}
	})

	t.Run("full weight passed through", func(t *testing.T) {
		items := NormalizeItems([]CandidateItem{
			{ProductName: "Jarlsberg", Weight: "1,1 kg"},
		})
		if items[0].WeightOrVolume != "1,1 kg" {
			t.Errorf("WeightOrVolume = %q, want %q", items[0].WeightOrVolume, "1,1 kg")
		}
	})

	t.Run("quantity coercion", func(t *testing.T) {
		tests := []struct {
			quantity interface{}
			want     int
		}{
			{float64(3), 3},
			{"2", 2},
			{"0.5", 0},
			{nil, 1},
			{"mange", 1},
			{float64(-2), 1},
			{float64(0), 0},
		}
		for _, tt := range tests {
			items := NormalizeItems([]CandidateItem{
				{ProductName: "Vare", Quantity: tt.quantity},
			})
			if items[0].Quantity != tt.want {
				t.Errorf("quantity %v normalized to %d, want %d", tt.quantity, items[0].Quantity, tt.want)
			}
		}
	})

	t.Run("nameless candidate dropped", func(t *testing.T) {
		items := NormalizeItems([]CandidateItem{
			{ProductName: "  "},
			{ProductName: "Melk", GeneralName: "Milk", FoodType: "Dairy"},
		})
		if len(items) != 1 {
			t.Fatalf("got %d items, want 1", len(items))
		}
		if items[0].GeneralName != "Milk" || items[0].FoodType != "Dairy" {
			t.Errorf("unexpected item: %+v", items[0])
		}
	})
}

func TestCanonicalItemKey(t *testing.T) {
	tests := []struct {
		item ReceiptItem
		want string
	}{
		{ReceiptItem{RawName: "Bringebær Marokko", GeneralName: "Raspberry"}, "raspberry"},
		{ReceiptItem{RawName: "BRØD GROVT"}, "brød grovt"},
		{ReceiptItem{RawName: " Melk ", GeneralName: ""}, "melk"},
	}
	for _, tt := range tests {
		if got := CanonicalItemKey(tt.item); got != tt.want {
			t.Errorf("CanonicalItemKey(%+v) = %q, want %q", tt.item, got, tt.want)
		}
	}
}

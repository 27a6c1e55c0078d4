package store

import (
	"context"
	"testing"
	"time"

	"github.com/shelfsense/shelfsense/internal/core"
	"go.uber.org/zap"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testOrder(number string, date time.Time) *core.Order {
	return &core.Order{
		OrderNumber: number,
		OrderDate:   date,
		Items: []core.ReceiptItem{
			{RawName: "Bringebær Marokko", Quantity: 1, WeightOrVolume: "125 g", GeneralName: "Raspberry", FoodType: "Berries"},
			{RawName: "Tine Helmelk", Quantity: 2, WeightOrVolume: "1 l", GeneralName: "Milk", FoodType: "Dairy"},
		},
		ProcessedMessageID: "msg-" + number,
	}
}

func TestMemoryStoreOrders(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zap.NewNop())

	saved, err := s.SaveOrder(ctx, testOrder("ABC123", day(2025, time.March, 10)))
	if err != nil {
		t.Fatalf("SaveOrder() error = %v", err)
	}
	if saved.ID == 0 {
		t.Error("saved order should have an id assigned")
	}
	for _, item := range saved.Items {
		if item.ID == 0 || item.OrderID != saved.ID {
			t.Errorf("item ids not assigned: %+v", item)
		}
	}

	got, err := s.GetOrder(ctx, saved.ID)
	if err != nil {
		t.Fatalf("GetOrder() error = %v", err)
	}
	if got == nil || got.OrderNumber != "ABC123" || len(got.Items) != 2 {
		t.Fatalf("GetOrder() = %+v, want order ABC123 with 2 items", got)
	}

	byNumber, err := s.GetOrderByNumber(ctx, "ABC123")
	if err != nil || byNumber == nil || byNumber.ID != saved.ID {
		t.Fatalf("GetOrderByNumber() = %+v, %v", byNumber, err)
	}

	exists, err := s.OrderNumberExists(ctx, "ABC123")
	if err != nil || !exists {
		t.Errorf("OrderNumberExists(ABC123) = %v, %v, want true", exists, err)
	}
	exists, err = s.OrderNumberExists(ctx, "NOPE")
	if err != nil || exists {
		t.Errorf("OrderNumberExists(NOPE) = %v, %v, want false", exists, err)
	}

	if err := s.DeleteOrder(ctx, saved.ID); err != nil {
		t.Fatalf("DeleteOrder() error = %v", err)
	}
	got, err = s.GetOrder(ctx, saved.ID)
	if err != nil || got != nil {
		t.Errorf("GetOrder() after delete = %+v, %v, want nil", got, err)
	}
}

func TestMemoryStoreListOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zap.NewNop())

	if _, err := s.SaveOrder(ctx, testOrder("OLD1", day(2025, time.January, 5))); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SaveOrder(ctx, testOrder("NEW1", day(2025, time.April, 5))); err != nil {
		t.Fatal(err)
	}

	orders, err := s.ListOrders(ctx)
	if err != nil {
		t.Fatalf("ListOrders() error = %v", err)
	}
	if len(orders) != 2 || orders[0].OrderNumber != "NEW1" {
		t.Errorf("ListOrders() order = [%s %s], want NEW1 first",
			orders[0].OrderNumber, orders[1].OrderNumber)
	}
}

func TestMemoryStorePurchaseHistory(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zap.NewNop())

	if _, err := s.SaveOrder(ctx, testOrder("A1", day(2025, time.February, 1))); err != nil {
		t.Fatal(err)
	}

	entries, err := s.PurchaseHistory(ctx)
	if err != nil {
		t.Fatalf("PurchaseHistory() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("PurchaseHistory() returned %d entries, want 2", len(entries))
	}
	keys := map[string]bool{}
	for _, entry := range entries {
		keys[entry.ItemKey] = true
		if !entry.PurchaseDate.Equal(day(2025, time.February, 1)) {
			t.Errorf("entry %q has date %v", entry.ItemKey, entry.PurchaseDate)
		}
	}
	if !keys["raspberry"] || !keys["milk"] {
		t.Errorf("history keys = %v, want folded general names", keys)
	}
}

func TestMemoryStoreProcessedMessages(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zap.NewNop())

	exists, err := s.Exists(ctx, "m1")
	if err != nil || exists {
		t.Fatalf("Exists() on empty store = %v, %v", exists, err)
	}

	rec := &core.ProcessedMessage{MessageID: "m1", SentAt: day(2025, time.March, 1), ProcessedAt: day(2025, time.March, 2)}
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	exists, err = s.Exists(ctx, "m1")
	if err != nil || !exists {
		t.Fatalf("Exists() after save = %v, %v, want true", exists, err)
	}

	if err := s.LinkOrder(ctx, "m1", 42); err != nil {
		t.Fatalf("LinkOrder() error = %v", err)
	}
	if s.processed["m1"].OrderID != 42 {
		t.Errorf("LinkOrder() did not set order id, got %d", s.processed["m1"].OrderID)
	}
}

func TestMemoryStoreSuggestionsReplaceAll(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zap.NewNop())

	first := []core.Suggestion{
		{ItemKey: "milk", LastPurchaseDate: day(2025, time.March, 1), Category: core.BuyNow},
		{ItemKey: "raspberry", LastPurchaseDate: day(2025, time.March, 5), Category: core.LowStock},
	}
	if err := s.ReplaceAll(ctx, first); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}

	second := []core.Suggestion{
		{ItemKey: "bread", LastPurchaseDate: day(2025, time.April, 1), Category: core.CheckNow},
	}
	if err := s.ReplaceAll(ctx, second); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}

	got, err := s.ListSuggestions(ctx)
	if err != nil {
		t.Fatalf("ListSuggestions() error = %v", err)
	}
	if len(got) != 1 || got[0].ItemKey != "bread" {
		t.Errorf("ListSuggestions() = %+v, want only the replacement set", got)
	}
}

package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

// stubExtractor returns a canned model response or error
type stubExtractor struct {
	response string
	err      error
	calls    int
}

func (s *stubExtractor) ExtractItems(_ context.Context, _ string) (string, error) {
	s.calls++
	return s.response, s.err
}

// fakeOrderStore is a minimal in-memory OrderStore for pipeline tests
type fakeOrderStore struct {
	orders []*Order
	nextID int64
}

func (f *fakeOrderStore) SaveOrder(_ context.Context, order *Order) (*Order, error) {
	f.nextID++
	order.ID = f.nextID
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	f.orders = append(f.orders, order)
	return order, nil
}

func (f *fakeOrderStore) GetOrder(_ context.Context, id int64) (*Order, error) {
	for _, o := range f.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderStore) GetOrderByNumber(_ context.Context, number string) (*Order, error) {
	for _, o := range f.orders {
		if o.OrderNumber == number {
			return o, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderStore) ListOrders(_ context.Context) ([]*Order, error) {
	return f.orders, nil
}

func (f *fakeOrderStore) OrderNumberExists(_ context.Context, number string) (bool, error) {
	for _, o := range f.orders {
		if o.OrderNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeOrderStore) DeleteOrder(_ context.Context, id int64) error {
	for i, o := range f.orders {
		if o.ID == id {
			f.orders = append(f.orders[:i], f.orders[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeOrderStore) PurchaseHistory(_ context.Context) ([]PurchaseHistoryEntry, error) {
	var entries []PurchaseHistoryEntry
	for _, o := range f.orders {
		for _, item := range o.Items {
			entries = append(entries, PurchaseHistoryEntry{
				ItemKey:      CanonicalItemKey(item),
				PurchaseDate: o.OrderDate,
			})
		}
	}
	return entries, nil
}

// fakeProcessedStore is a minimal in-memory ProcessedMessageStore
type fakeProcessedStore struct {
	records map[string]*ProcessedMessage
}

func newFakeProcessedStore() *fakeProcessedStore {
	return &fakeProcessedStore{records: make(map[string]*ProcessedMessage)}
}

func (f *fakeProcessedStore) Exists(_ context.Context, messageID string) (bool, error) {
	_, ok := f.records[messageID]
	return ok, nil
}

func (f *fakeProcessedStore) Save(_ context.Context, rec *ProcessedMessage) error {
	if _, ok := f.records[rec.MessageID]; ok {
		return errors.New("duplicate message id")
	}
	f.records[rec.MessageID] = rec
	return nil
}

func (f *fakeProcessedStore) LinkOrder(_ context.Context, messageID string, orderID int64) error {
	rec, ok := f.records[messageID]
	if !ok {
		return errors.New("no such record")
	}
	rec.OrderID = orderID
	return nil
}

const modelResponse = "```json\n" + `{
	"products_list": [
		{"product_name": "Bringebær 125 g", "quantity": 1, "weight": "g", "general_name": "Raspberry", "food_type": "Berries"},
		{"product_name": "Melk 1 l", "quantity": "2", "weight": "1 l", "general_name": "Milk", "food_type": "Dairy"}
	]
}` + "\n```"

func receiptEmail(messageID, orderNumber string) *Email {
	return &Email{
		MessageID: messageID,
		From:      "kvittering@oda.com",
		Subject:   "Oda: Kvittering " + orderNumber,
		Body: "Fakturadato 15.03.2024\n" +
			"Ordered items\nBringebær 125 g kr45\nMelk 1 l kr22\nSummary\nTotal kr67",
		SentAt: time.Date(2025, time.March, 16, 10, 0, 0, 0, time.UTC),
	}
}

func newTestService(extractor ItemExtractor) (*ReceiptService, *fakeOrderStore, *fakeProcessedStore) {
	orders := &fakeOrderStore{}
	processed := newFakeProcessedStore()
	svc := NewReceiptService(extractor, nil, orders, processed, zap.NewNop(), nil)
	return svc, orders, processed
}

func TestProcessEmailHappyPath(t *testing.T) {
	svc, orders, processed := newTestService(&stubExtractor{response: modelResponse})

	order, err := svc.ProcessEmail(context.Background(), receiptEmail("<m1@oda>", "A123"))
	if err != nil {
		t.Fatal(err)
	}
	if order == nil {
		t.Fatal("expected an order")
	}
	if order.OrderNumber != "A123" {
		t.Errorf("order number = %q", order.OrderNumber)
	}
	if want := date(2024, time.March, 15); !order.OrderDate.Equal(want) {
		t.Errorf("order date = %v, want %v", order.OrderDate, want)
	}
	if len(order.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(order.Items))
	}
	if order.Items[0].WeightOrVolume != "125 g" {
		t.Errorf("bare unit weight not recovered: %q", order.Items[0].WeightOrVolume)
	}
	if order.Items[1].Quantity != 2 {
		t.Errorf("quantity = %d, want 2", order.Items[1].Quantity)
	}

	rec := processed.records["<m1@oda>"]
	if rec == nil {
		t.Fatal("no processed record saved")
	}
	if rec.OrderID != order.ID {
		t.Errorf("processed record not linked: order id %d, rec %d", order.ID, rec.OrderID)
	}
	if len(orders.orders) != 1 {
		t.Errorf("store holds %d orders, want 1", len(orders.orders))
	}
}

func TestProcessEmailSkipsWithoutSideEffects(t *testing.T) {
	tests := []struct {
		name  string
		email *Email
	}{
		{"missing message id", &Email{Subject: "Oda: Kvittering A1", Body: "x"}},
		{"no order number", &Email{MessageID: "<m>", Subject: "Nyhetsbrev", Body: "x"}},
		{"blank body", &Email{MessageID: "<m>", Subject: "Oda: Kvittering A1"}},
		{
			"no items block",
			&Email{
				MessageID: "<m>",
				Subject:   "Oda: Kvittering A1",
				Body:      "Fakturadato 15.03.2024\nIngen varer her",
				SentAt:    time.Now(),
			},
		},
		{
			"no date anywhere",
			&Email{
				MessageID: "<m>",
				Subject:   "Oda: Kvittering A1",
				Body:      "Ordered items\nMelk\nSummary",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, orders, processed := newTestService(&stubExtractor{response: modelResponse})
			order, err := svc.ProcessEmail(context.Background(), tt.email)
			if err != nil {
				t.Fatal(err)
			}
			if order != nil {
				t.Error("expected a skip")
			}
			if len(orders.orders) != 0 {
				t.Error("an order was saved on a skip path")
			}
			if len(processed.records) != 0 {
				t.Error("a processed record was saved on a skip path")
			}
		})
	}
}

func TestProcessEmailDeduplicatesByMessageID(t *testing.T) {
	extractor := &stubExtractor{response: modelResponse}
	svc, orders, _ := newTestService(extractor)

	if _, err := svc.ProcessEmail(context.Background(), receiptEmail("<m1>", "A123")); err != nil {
		t.Fatal(err)
	}
	order, err := svc.ProcessEmail(context.Background(), receiptEmail("<m1>", "B456"))
	if err != nil {
		t.Fatal(err)
	}
	if order != nil {
		t.Error("reprocessing the same message id must be a skip")
	}
	if len(orders.orders) != 1 {
		t.Errorf("store holds %d orders, want 1", len(orders.orders))
	}
	if extractor.calls != 1 {
		t.Errorf("extractor called %d times, want 1", extractor.calls)
	}
}

func TestProcessEmailDuplicateOrderNumberStillMarksProcessed(t *testing.T) {
	svc, orders, processed := newTestService(&stubExtractor{response: modelResponse})

	if _, err := svc.ProcessEmail(context.Background(), receiptEmail("<m1>", "A123")); err != nil {
		t.Fatal(err)
	}
	order, err := svc.ProcessEmail(context.Background(), receiptEmail("<m2>", "A123"))
	if err != nil {
		t.Fatal(err)
	}
	if order != nil {
		t.Error("duplicate order number must not create a second order")
	}
	if len(orders.orders) != 1 {
		t.Errorf("store holds %d orders, want 1", len(orders.orders))
	}

	rec := processed.records["<m2>"]
	if rec == nil {
		t.Fatal("duplicate must still be marked processed to stop retries")
	}
	if rec.OrderID != 0 {
		t.Errorf("duplicate record should carry no order, got %d", rec.OrderID)
	}
}

func TestProcessEmailFallsBackToSentDate(t *testing.T) {
	svc, _, _ := newTestService(&stubExtractor{response: modelResponse})

	email := receiptEmail("<m1>", "A123")
	email.Body = "Ordered items\nMelk 1 l kr22\nSummary\nTotal kr22"

	order, err := svc.ProcessEmail(context.Background(), email)
	if err != nil {
		t.Fatal(err)
	}
	if order == nil {
		t.Fatal("expected an order")
	}
	if want := date(2025, time.March, 16); !order.OrderDate.Equal(want) {
		t.Errorf("order date = %v, want sent day %v", order.OrderDate, want)
	}
}

func TestProcessEmailExtractorFailureIsRetryableSkip(t *testing.T) {
	svc, orders, processed := newTestService(&stubExtractor{err: errors.New("model unavailable")})

	order, err := svc.ProcessEmail(context.Background(), receiptEmail("<m1>", "A123"))
	if err != nil {
		t.Fatal(err)
	}
	if order != nil {
		t.Error("extractor failure must degrade to a skip")
	}
	if len(orders.orders) != 0 || len(processed.records) != 0 {
		t.Error("extractor failure must leave no record, so the message can be retried")
	}
}

// failingSource exercises the batch-abort path
type failingSource struct{}

func (failingSource) Connect(context.Context) (MailSession, error) {
	return nil, errors.New("connection refused")
}

// fakeSession returns canned messages and records lifecycle calls
type fakeSession struct {
	emails     []*Email
	closed     bool
	markedRead []string
}

func (s *fakeSession) Fetch(context.Context) ([]*Email, error) { return s.emails, nil }
func (s *fakeSession) MarkRead(_ context.Context, id string) error {
	s.markedRead = append(s.markedRead, id)
	return nil
}
func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeSource struct{ session *fakeSession }

func (s *fakeSource) Connect(context.Context) (MailSession, error) { return s.session, nil }

func TestMailIngestBatch(t *testing.T) {
	svc, orders, _ := newTestService(&stubExtractor{response: modelResponse})

	old := receiptEmail("<old>", "OLD1")
	old.SentAt = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	session := &fakeSession{emails: []*Email{
		receiptEmail("<m1>", "A123"),
		old,                            // below the minimum year
		{MessageID: "<bad>", Subject: "Nyhetsbrev", Body: "x", SentAt: time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)},
		receiptEmail("<m2>", "B456"),
	}}

	ingest := NewMailIngestService(&fakeSource{session: session}, svc, nil, zap.NewNop(), 2025, true)
	if err := ingest.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if !session.closed {
		t.Error("session must be closed after the batch")
	}
	if len(orders.orders) != 2 {
		t.Errorf("store holds %d orders, want 2", len(orders.orders))
	}
	if len(session.markedRead) != 2 {
		t.Errorf("marked %d messages read, want 2: %v", len(session.markedRead), session.markedRead)
	}
}

func TestMailIngestConnectFailureAbortsBatch(t *testing.T) {
	svc, _, _ := newTestService(&stubExtractor{response: modelResponse})
	ingest := NewMailIngestService(failingSource{}, svc, nil, zap.NewNop(), 2025, false)
	if err := ingest.Run(context.Background()); err == nil {
		t.Fatal("expected a batch-level error when the session cannot open")
	}
}

type denyAllFilter struct{}

func (denyAllFilter) Allowed(string) bool { return false }

func TestMailIngestSenderFilter(t *testing.T) {
	svc, orders, _ := newTestService(&stubExtractor{response: modelResponse})
	session := &fakeSession{emails: []*Email{receiptEmail("<m1>", "A123")}}

	ingest := NewMailIngestService(&fakeSource{session: session}, svc, denyAllFilter{}, zap.NewNop(), 2025, false)
	if err := ingest.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(orders.orders) != 0 {
		t.Error("filtered sender must not produce orders")
	}
}

func TestSuggestionServiceReplacesPreviousSet(t *testing.T) {
	orders := &fakeOrderStore{}
	store := &fakeSuggestionStore{}
	engine := NewCadenceEngine(fixedClock(date(2025, time.June, 1)))
	svc := NewSuggestionService(orders, store, engine, zap.NewNop())

	// Two orders 10 days apart, 21 days before "today": BUY_NOW.
	for i, day := range []time.Time{date(2025, time.May, 1), date(2025, time.May, 11)} {
		orders.SaveOrder(context.Background(), &Order{
			OrderNumber: []string{"A1", "A2"}[i],
			OrderDate:   day,
			Items:       []ReceiptItem{{RawName: "Melk", GeneralName: "Milk"}},
		})
	}

	if err := svc.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	first, _ := store.ListSuggestions(context.Background())
	if len(first) != 1 || first[0].Category != BuyNow || first[0].ItemKey != "milk" {
		t.Fatalf("unexpected suggestions: %+v", first)
	}

	// Re-running over unchanged history replaces, never accumulates.
	if err := svc.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	second, _ := store.ListSuggestions(context.Background())
	if len(second) != 1 {
		t.Fatalf("suggestion set accumulated: %+v", second)
	}
	if store.replaceCalls != 2 {
		t.Errorf("ReplaceAll called %d times, want 2", store.replaceCalls)
	}
}

type fakeSuggestionStore struct {
	current      []Suggestion
	replaceCalls int
}

func (f *fakeSuggestionStore) ReplaceAll(_ context.Context, suggestions []Suggestion) error {
	f.replaceCalls++
	f.current = append([]Suggestion(nil), suggestions...)
	return nil
}

func (f *fakeSuggestionStore) ListSuggestions(context.Context) ([]Suggestion, error) {
	return f.current, nil
}

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/shelfsense/shelfsense/internal/core"
	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of the order, processed
// message and suggestion stores. It backs the CLI and one-shot runs
// where nothing needs to survive the process.
type MemoryStore struct {
	mu          sync.RWMutex
	logger      *zap.Logger
	orders      map[int64]*core.Order
	processed   map[string]*core.ProcessedMessage
	suggestions []core.Suggestion
	nextOrderID int64
	nextItemID  int64
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		logger:      logger,
		orders:      make(map[int64]*core.Order),
		processed:   make(map[string]*core.ProcessedMessage),
		nextOrderID: 1,
		nextItemID:  1,
	}
}

// SaveOrder stores an order and its items
func (s *MemoryStore) SaveOrder(ctx context.Context, order *core.Order) (*core.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := cloneOrder(order)
	saved.ID = s.nextOrderID
	s.nextOrderID++
	for i := range saved.Items {
		saved.Items[i].ID = s.nextItemID
		saved.Items[i].OrderID = saved.ID
		s.nextItemID++
	}

	s.orders[saved.ID] = saved
	return cloneOrder(saved), nil
}

// GetOrder returns the order with its items, or nil if absent
func (s *MemoryStore) GetOrder(ctx context.Context, id int64) (*core.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	return cloneOrder(order), nil
}

// GetOrderByNumber returns the order with its items, or nil if absent
func (s *MemoryStore) GetOrderByNumber(ctx context.Context, orderNumber string) (*core.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, order := range s.orders {
		if order.OrderNumber == orderNumber {
			return cloneOrder(order), nil
		}
	}
	return nil, nil
}

// ListOrders returns all orders sorted by order date, newest first
func (s *MemoryStore) ListOrders(ctx context.Context) ([]*core.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]*core.Order, 0, len(s.orders))
	for _, order := range s.orders {
		orders = append(orders, cloneOrder(order))
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].OrderDate.Equal(orders[j].OrderDate) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].OrderDate.After(orders[j].OrderDate)
	})
	return orders, nil
}

// OrderNumberExists reports whether an order with the number is stored
func (s *MemoryStore) OrderNumberExists(ctx context.Context, orderNumber string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, order := range s.orders {
		if order.OrderNumber == orderNumber {
			return true, nil
		}
	}
	return false, nil
}

// DeleteOrder removes an order and all of its items
func (s *MemoryStore) DeleteOrder(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.orders, id)
	return nil
}

// PurchaseHistory returns one entry per stored item with its order date
func (s *MemoryStore) PurchaseHistory(ctx context.Context) ([]core.PurchaseHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []core.PurchaseHistoryEntry
	for _, order := range s.orders {
		for _, item := range order.Items {
			entries = append(entries, core.PurchaseHistoryEntry{
				ItemKey:      core.CanonicalItemKey(item),
				PurchaseDate: order.OrderDate,
			})
		}
	}
	return entries, nil
}

// Exists reports whether a message id has already been processed
func (s *MemoryStore) Exists(ctx context.Context, messageID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.processed[messageID]
	return ok, nil
}

// Save stores a processed-message record
func (s *MemoryStore) Save(ctx context.Context, rec *core.ProcessedMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *rec
	s.processed[rec.MessageID] = &copied
	return nil
}

// LinkOrder attaches the generated order to an existing record
func (s *MemoryStore) LinkOrder(ctx context.Context, messageID string, orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.processed[messageID]; ok {
		rec.OrderID = orderID
	}
	return nil
}

// ReplaceAll swaps the stored suggestion set for the new one
func (s *MemoryStore) ReplaceAll(ctx context.Context, suggestions []core.Suggestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.suggestions = append([]core.Suggestion(nil), suggestions...)
	return nil
}

// ListSuggestions returns the current suggestion set
func (s *MemoryStore) ListSuggestions(ctx context.Context) ([]core.Suggestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]core.Suggestion(nil), s.suggestions...), nil
}

// Close releases nothing for the in-memory store
func (s *MemoryStore) Close() error {
	return nil
}

func cloneOrder(order *core.Order) *core.Order {
	copied := *order
	copied.Items = append([]core.ReceiptItem(nil), order.Items...)
	return &copied
}

package core

import (
	"context"
	"time"
)

// ItemExtractor defines the interface for the model call that turns
// receipt text into candidate line items. The raw model output is
// returned as-is; JSON recovery happens in the normalizer.
type ItemExtractor interface {
	// ExtractItems asks the model for the line items of a receipt text
	ExtractItems(ctx context.Context, receiptText string) (string, error)
}

// OCRClient defines the interface for turning a receipt photo into raw text
type OCRClient interface {
	// ExtractText runs text detection on an image
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// MailSession is one open mailbox session. Fetch returns the messages
// matching the configured subject filter; Close must be called on every
// exit path of a batch.
type MailSession interface {
	Fetch(ctx context.Context) ([]*Email, error)
	MarkRead(ctx context.Context, messageID string) error
	Close() error
}

// MailSource opens mailbox sessions
type MailSource interface {
	Connect(ctx context.Context) (MailSession, error)
}

// OrderStore persists orders with their items. Reads return fully
// materialized aggregates; no lazy loading behind the interface.
type OrderStore interface {
	// SaveOrder stores an order and its items in one transaction
	// and returns the stored order with ids assigned
	SaveOrder(ctx context.Context, order *Order) (*Order, error)

	// GetOrder returns the order with its items, or nil if absent
	GetOrder(ctx context.Context, id int64) (*Order, error)

	// GetOrderByNumber returns the order with its items, or nil if absent
	GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error)

	// ListOrders returns all orders with their items
	ListOrders(ctx context.Context) ([]*Order, error)

	// OrderNumberExists reports whether an order with the number is stored
	OrderNumberExists(ctx context.Context, orderNumber string) (bool, error)

	// DeleteOrder removes an order and all of its items in one transaction
	DeleteOrder(ctx context.Context, id int64) error

	// PurchaseHistory returns one entry per stored item, joined with
	// its order's purchase date
	PurchaseHistory(ctx context.Context) ([]PurchaseHistoryEntry, error)
}

// ProcessedMessageStore persists the message dedup records
type ProcessedMessageStore interface {
	// Exists reports whether a message id has already been processed
	Exists(ctx context.Context, messageID string) (bool, error)

	// Save stores a processed-message record
	Save(ctx context.Context, rec *ProcessedMessage) error

	// LinkOrder attaches the generated order to an existing record
	LinkOrder(ctx context.Context, messageID string, orderID int64) error
}

// SuggestionStore persists the derived suggestion set
type SuggestionStore interface {
	// ReplaceAll atomically deletes the previous suggestion set and
	// stores the new one
	ReplaceAll(ctx context.Context, suggestions []Suggestion) error

	// ListSuggestions returns the current suggestion set
	ListSuggestions(ctx context.Context) ([]Suggestion, error)
}

// Clock abstracts "today" for the cadence engine
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface
type ClockFunc func() time.Time

// Now implements Clock
func (f ClockFunc) Now() time.Time { return f() }

package core

import (
	"time"
)

// Email represents a fetched mail message
type Email struct {
	MessageID string
	From      string
	To        []string
	Subject   string
	Body      string
	SentAt    time.Time
	Headers   map[string][]string
}

// Order represents one parsed receipt
type Order struct {
	ID                 int64
	OrderNumber        string
	OrderDate          time.Time
	Items              []ReceiptItem
	ProcessedMessageID string
}

// ReceiptItem is a single line item of an order
type ReceiptItem struct {
	ID             int64
	OrderID        int64
	RawName        string
	Quantity       int
	WeightOrVolume string
	GeneralName    string
	FoodType       string
}

// ProcessedMessage records that a mail message has been handled.
// Existence of a record blocks any reprocessing of the same message id,
// whether or not an order was created from it.
type ProcessedMessage struct {
	MessageID   string
	SentAt      time.Time
	ProcessedAt time.Time
	OrderID     int64 // 0 when no order was created
}

// CandidateItem is a loosely-typed line item as returned by the
// extraction model. Any field may be missing or wrongly typed.
type CandidateItem struct {
	ProductName string      `json:"product_name"`
	Quantity    interface{} `json:"quantity"`
	Weight      string      `json:"weight"`
	GeneralName string      `json:"general_name"`
	FoodType    string      `json:"food_type"`
}

// PurchaseHistoryEntry pairs an item's canonical key with one purchase date
type PurchaseHistoryEntry struct {
	ItemKey      string
	PurchaseDate time.Time
}

// SuggestionCategory classifies how urgently an item should be restocked
type SuggestionCategory string

const (
	BuyNow   SuggestionCategory = "BUY_NOW"
	LowStock SuggestionCategory = "LOW_STOCK"
	CheckNow SuggestionCategory = "CHECK_NOW"
)

// DisplayName returns the human-readable label for the category
func (c SuggestionCategory) DisplayName() string {
	switch c {
	case BuyNow:
		return "Buy now"
	case LowStock:
		return "Low stock"
	case CheckNow:
		return "Not purchased in a while"
	default:
		return string(c)
	}
}

// Valid reports whether the category is one of the known values
func (c SuggestionCategory) Valid() bool {
	switch c {
	case BuyNow, LowStock, CheckNow:
		return true
	}
	return false
}

// Suggestion is one entry of the derived restock forecast. The whole
// suggestion set is replaced on every cadence run.
type Suggestion struct {
	ItemKey          string
	LastPurchaseDate time.Time
	Category         SuggestionCategory
}

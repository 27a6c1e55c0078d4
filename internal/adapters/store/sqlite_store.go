package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shelfsense/shelfsense/internal/core"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite implementation of the order, processed
// message and suggestion stores
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := createSQLiteSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{
		db:     db,
		logger: logger,
	}, nil
}

func createSQLiteSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_number TEXT NOT NULL UNIQUE,
			order_date TIMESTAMP NOT NULL,
			processed_message_id TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS receipt_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			raw_name TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			weight_or_volume TEXT,
			general_name TEXT,
			food_type TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_receipt_items_order_id ON receipt_items(order_id)`,
		`CREATE TABLE IF NOT EXISTS processed_messages (
			message_id TEXT PRIMARY KEY,
			sent_at TIMESTAMP NOT NULL,
			processed_at TIMESTAMP NOT NULL,
			order_id INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS suggestions (
			item_key TEXT PRIMARY KEY,
			last_purchase_date TIMESTAMP NOT NULL,
			category TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// SaveOrder stores an order and its items in one transaction
func (s *SQLiteStore) SaveOrder(ctx context.Context, order *core.Order) (*core.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO orders (order_number, order_date, processed_message_id)
		VALUES (?, ?, ?)
	`, order.OrderNumber, order.OrderDate.Format(time.RFC3339), order.ProcessedMessageID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}
	orderID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get order id: %w", err)
	}

	saved := cloneOrder(order)
	saved.ID = orderID
	for i := range saved.Items {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO receipt_items (order_id, raw_name, quantity, weight_or_volume, general_name, food_type)
			VALUES (?, ?, ?, ?, ?, ?)
		`, orderID, saved.Items[i].RawName, saved.Items[i].Quantity,
			saved.Items[i].WeightOrVolume, saved.Items[i].GeneralName, saved.Items[i].FoodType)
		if err != nil {
			return nil, fmt.Errorf("failed to insert receipt item: %w", err)
		}
		itemID, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to get item id: %w", err)
		}
		saved.Items[i].ID = itemID
		saved.Items[i].OrderID = orderID
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}
	return saved, nil
}

// GetOrder returns the order with its items, or nil if absent
func (s *SQLiteStore) GetOrder(ctx context.Context, id int64) (*core.Order, error) {
	return s.queryOrder(ctx, `SELECT id, order_number, order_date, processed_message_id FROM orders WHERE id = ?`, id)
}

// GetOrderByNumber returns the order with its items, or nil if absent
func (s *SQLiteStore) GetOrderByNumber(ctx context.Context, orderNumber string) (*core.Order, error) {
	return s.queryOrder(ctx, `SELECT id, order_number, order_date, processed_message_id FROM orders WHERE order_number = ?`, orderNumber)
}

func (s *SQLiteStore) queryOrder(ctx context.Context, query string, arg interface{}) (*core.Order, error) {
	var order core.Order
	var orderDate string
	var processedMessageID sql.NullString

	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&order.ID, &order.OrderNumber, &orderDate, &processedMessageID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	order.OrderDate, err = parseSQLiteTime(orderDate)
	if err != nil {
		return nil, err
	}
	order.ProcessedMessageID = processedMessageID.String

	items, err := s.loadItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

// ListOrders returns all orders with their items, newest first
func (s *SQLiteStore) ListOrders(ctx context.Context) ([]*core.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_number, order_date, processed_message_id
		FROM orders
		ORDER BY order_date DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*core.Order
	for rows.Next() {
		var order core.Order
		var orderDate string
		var processedMessageID sql.NullString
		if err := rows.Scan(&order.ID, &order.OrderNumber, &orderDate, &processedMessageID); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		order.OrderDate, err = parseSQLiteTime(orderDate)
		if err != nil {
			return nil, err
		}
		order.ProcessedMessageID = processedMessageID.String
		orders = append(orders, &order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	for _, order := range orders {
		items, err := s.loadItems(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
	}
	return orders, nil
}

func (s *SQLiteStore) loadItems(ctx context.Context, orderID int64) ([]core.ReceiptItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, raw_name, quantity, weight_or_volume, general_name, food_type
		FROM receipt_items
		WHERE order_id = ?
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipt items: %w", err)
	}
	defer rows.Close()

	var items []core.ReceiptItem
	for rows.Next() {
		var item core.ReceiptItem
		var weight, general, foodType sql.NullString
		if err := rows.Scan(&item.ID, &item.OrderID, &item.RawName, &item.Quantity, &weight, &general, &foodType); err != nil {
			return nil, fmt.Errorf("failed to scan receipt item: %w", err)
		}
		item.WeightOrVolume = weight.String
		item.GeneralName = general.String
		item.FoodType = foodType.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// OrderNumberExists reports whether an order with the number is stored
func (s *SQLiteStore) OrderNumberExists(ctx context.Context, orderNumber string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM orders WHERE order_number = ?`, orderNumber).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check order number: %w", err)
	}
	return count > 0, nil
}

// DeleteOrder removes an order and all of its items in one transaction
func (s *SQLiteStore) DeleteOrder(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM receipt_items WHERE order_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete receipt items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return tx.Commit()
}

// PurchaseHistory returns one entry per stored item with its order date
func (s *SQLiteStore) PurchaseHistory(ctx context.Context) ([]core.PurchaseHistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.raw_name, i.general_name, o.order_date
		FROM receipt_items i
		JOIN orders o ON o.id = i.order_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase history: %w", err)
	}
	defer rows.Close()

	var entries []core.PurchaseHistoryEntry
	for rows.Next() {
		var rawName string
		var generalName sql.NullString
		var orderDate string
		if err := rows.Scan(&rawName, &generalName, &orderDate); err != nil {
			return nil, fmt.Errorf("failed to scan purchase history row: %w", err)
		}
		date, err := parseSQLiteTime(orderDate)
		if err != nil {
			return nil, err
		}
		entries = append(entries, core.PurchaseHistoryEntry{
			ItemKey: core.CanonicalItemKey(core.ReceiptItem{
				RawName:     rawName,
				GeneralName: generalName.String,
			}),
			PurchaseDate: date,
		})
	}
	return entries, rows.Err()
}

// Exists reports whether a message id has already been processed
func (s *SQLiteStore) Exists(ctx context.Context, messageID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM processed_messages WHERE message_id = ?`, messageID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check processed message: %w", err)
	}
	return count > 0, nil
}

// Save stores a processed-message record
func (s *SQLiteStore) Save(ctx context.Context, rec *core.ProcessedMessage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO processed_messages (message_id, sent_at, processed_at, order_id)
		VALUES (?, ?, ?, ?)
	`, rec.MessageID, rec.SentAt.Format(time.RFC3339), rec.ProcessedAt.Format(time.RFC3339), rec.OrderID)
	if err != nil {
		return fmt.Errorf("failed to save processed message: %w", err)
	}
	return nil
}

// LinkOrder attaches the generated order to an existing record
func (s *SQLiteStore) LinkOrder(ctx context.Context, messageID string, orderID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE processed_messages SET order_id = ? WHERE message_id = ?
	`, orderID, messageID)
	if err != nil {
		return fmt.Errorf("failed to link order to processed message: %w", err)
	}
	return nil
}

// ReplaceAll atomically swaps the stored suggestion set for the new one
func (s *SQLiteStore) ReplaceAll(ctx context.Context, suggestions []core.Suggestion) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM suggestions`); err != nil {
		return fmt.Errorf("failed to clear suggestions: %w", err)
	}
	for _, suggestion := range suggestions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO suggestions (item_key, last_purchase_date, category)
			VALUES (?, ?, ?)
		`, suggestion.ItemKey, suggestion.LastPurchaseDate.Format(time.RFC3339), string(suggestion.Category)); err != nil {
			return fmt.Errorf("failed to insert suggestion: %w", err)
		}
	}
	return tx.Commit()
}

// ListSuggestions returns the current suggestion set
func (s *SQLiteStore) ListSuggestions(ctx context.Context) ([]core.Suggestion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_key, last_purchase_date, category
		FROM suggestions
		ORDER BY item_key
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}
	defer rows.Close()

	var suggestions []core.Suggestion
	for rows.Next() {
		var suggestion core.Suggestion
		var lastPurchase, category string
		if err := rows.Scan(&suggestion.ItemKey, &lastPurchase, &category); err != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}
		suggestion.LastPurchaseDate, err = parseSQLiteTime(lastPurchase)
		if err != nil {
			return nil, err
		}
		suggestion.Category = core.SuggestionCategory(category)
		suggestions = append(suggestions, suggestion)
	}
	return suggestions, rows.Err()
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// parseSQLiteTime reads the RFC3339 timestamps this store writes
func parseSQLiteTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored timestamp %q: %w", value, err)
	}
	return t, nil
}

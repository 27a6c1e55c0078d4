package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/shelfsense/shelfsense/internal/core"
	"go.uber.org/zap"
)

// MySQLStore is a MySQL implementation of the order, processed message
// and suggestion stores. The DSN must carry parseTime=true so DATETIME
// columns scan into time.Time.
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLStore creates a new MySQL store
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	if err := createMySQLSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &MySQLStore{
		db:     db,
		logger: logger,
	}, nil
}

func createMySQLSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			order_number VARCHAR(64) NOT NULL UNIQUE,
			order_date DATETIME NOT NULL,
			processed_message_id VARCHAR(255)
		)`,
		`CREATE TABLE IF NOT EXISTS receipt_items (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			order_id BIGINT NOT NULL,
			raw_name VARCHAR(255) NOT NULL,
			quantity INT NOT NULL,
			weight_or_volume VARCHAR(64),
			general_name VARCHAR(255),
			food_type VARCHAR(64),
			INDEX idx_receipt_items_order_id (order_id),
			CONSTRAINT fk_receipt_items_order FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS processed_messages (
			message_id VARCHAR(255) PRIMARY KEY,
			sent_at DATETIME NOT NULL,
			processed_at DATETIME NOT NULL,
			order_id BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS suggestions (
			item_key VARCHAR(255) PRIMARY KEY,
			last_purchase_date DATETIME NOT NULL,
			category VARCHAR(32) NOT NULL
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
func (s *MySQLStore) SaveOrder(ctx context.Context, order *core.Order) (*core.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO orders (order_number, order_date, processed_message_id)
		VALUES (?, ?, ?)
	`, order.OrderNumber, order.OrderDate, order.ProcessedMessageID)
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
func (s *MySQLStore) GetOrder(ctx context.Context, id int64) (*core.Order, error) {
	return s.queryOrder(ctx, `SELECT id, order_number, order_date, processed_message_id FROM orders WHERE id = ?`, id)
}

// GetOrderByNumber returns the order with its items, or nil if absent
func (s *MySQLStore) GetOrderByNumber(ctx context.Context, orderNumber string) (*core.Order, error) {
	return s.queryOrder(ctx, `SELECT id, order_number, order_date, processed_message_id FROM orders WHERE order_number = ?`, orderNumber)
}

func (s *MySQLStore) queryOrder(ctx context.Context, query string, arg interface{}) (*core.Order, error) {
	var order core.Order
	var processedMessageID sql.NullString

	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&order.ID, &order.OrderNumber, &order.OrderDate, &processedMessageID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query order: %w", err)
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
func (s *MySQLStore) ListOrders(ctx context.Context) ([]*core.Order, error) {
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
		var processedMessageID sql.NullString
		if err := rows.Scan(&order.ID, &order.OrderNumber, &order.OrderDate, &processedMessageID); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
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

func (s *MySQLStore) loadItems(ctx context.Context, orderID int64) ([]core.ReceiptItem, error) {
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
func (s *MySQLStore) OrderNumberExists(ctx context.Context, orderNumber string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM orders WHERE order_number = ?`, orderNumber).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check order number: %w", err)
	}
	return count > 0, nil
}

// DeleteOrder removes an order and all of its items in one transaction
func (s *MySQLStore) DeleteOrder(ctx context.Context, id int64) error {
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
func (s *MySQLStore) PurchaseHistory(ctx context.Context) ([]core.PurchaseHistoryEntry, error) {
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
		var entry core.PurchaseHistoryEntry
		var rawName string
		var generalName sql.NullString
		if err := rows.Scan(&rawName, &generalName, &entry.PurchaseDate); err != nil {
			return nil, fmt.Errorf("failed to scan purchase history row: %w", err)
		}
		entry.ItemKey = core.CanonicalItemKey(core.ReceiptItem{
			RawName:     rawName,
			GeneralName: generalName.String,
		})
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Exists reports whether a message id has already been processed
func (s *MySQLStore) Exists(ctx context.Context, messageID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM processed_messages WHERE message_id = ?`, messageID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check processed message: %w", err)
	}
	return count > 0, nil
}

// Save stores a processed-message record
func (s *MySQLStore) Save(ctx context.Context, rec *core.ProcessedMessage) error {
	_, err := s.db.ExecContext(ctx, `
		REPLACE INTO processed_messages (message_id, sent_at, processed_at, order_id)
		VALUES (?, ?, ?, ?)
	`, rec.MessageID, rec.SentAt, rec.ProcessedAt, rec.OrderID)
	if err != nil {
		return fmt.Errorf("failed to save processed message: %w", err)
	}
	return nil
}

// LinkOrder attaches the generated order to an existing record
func (s *MySQLStore) LinkOrder(ctx context.Context, messageID string, orderID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE processed_messages SET order_id = ? WHERE message_id = ?
	`, orderID, messageID)
	if err != nil {
		return fmt.Errorf("failed to link order to processed message: %w", err)
	}
	return nil
}

// ReplaceAll atomically swaps the stored suggestion set for the new one
func (s *MySQLStore) ReplaceAll(ctx context.Context, suggestions []core.Suggestion) error {
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
		`, suggestion.ItemKey, suggestion.LastPurchaseDate, string(suggestion.Category)); err != nil {
			return fmt.Errorf("failed to insert suggestion: %w", err)
		}
	}
	return tx.Commit()
}

// ListSuggestions returns the current suggestion set
func (s *MySQLStore) ListSuggestions(ctx context.Context) ([]core.Suggestion, error) {
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
		var category string
		if err := rows.Scan(&suggestion.ItemKey, &suggestion.LastPurchaseDate, &category); err != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}
		suggestion.Category = core.SuggestionCategory(category)
		suggestions = append(suggestions, suggestion)
	}
	return suggestions, rows.Err()
}

// Close closes the database connection
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

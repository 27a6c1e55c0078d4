package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sentinel errors for the receipt-photo path; the mail path treats the
// same conditions as logged skips instead.
var (
	ErrNoTextDetected   = errors.New("no text detected in receipt image")
	ErrNoOrderNumber    = errors.New("no order number found in receipt")
	ErrNoOrderDate      = errors.New("no order date found in receipt")
	ErrNoItemsExtracted = errors.New("no items extracted from receipt")
	ErrDuplicateOrder   = errors.New("order number already exists")
)

// ReceiptService turns receipt text into persisted orders
type ReceiptService struct {
	extractor ItemExtractor
	ocr       OCRClient
	orders    OrderStore
	processed ProcessedMessageStore
	logger    *zap.Logger
	clock     Clock
}

// NewReceiptService creates a new receipt service. The OCR client may
// be nil when the photo path is disabled.
func NewReceiptService(
	extractor ItemExtractor,
	ocr OCRClient,
	orders OrderStore,
	processed ProcessedMessageStore,
	logger *zap.Logger,
	clock Clock,
) *ReceiptService {
	if clock == nil {
		clock = ClockFunc(time.Now)
	}
	return &ReceiptService{
		extractor: extractor,
		ocr:       ocr,
		orders:    orders,
		processed: processed,
		logger:    logger,
		clock:     clock,
	}
}

// ProcessEmail runs the full pipeline for one receipt email. A nil
// order with a nil error means the message was skipped; the reason is
// logged. Errors are reserved for store faults that the caller may
// want to retry.
func (s *ReceiptService) ProcessEmail(ctx context.Context, email *Email) (*Order, error) {
	if email.MessageID == "" {
		s.logger.Warn("Email is missing a message id, skipping",
			zap.String("subject", email.Subject))
		return nil, nil
	}

	orderNumber, ok := ExtractOrderNumber(email.Subject)
	if !ok {
		s.logger.Warn("Could not extract order number from subject, skipping",
			zap.String("message_id", email.MessageID),
			zap.String("subject", email.Subject))
		return nil, nil
	}

	alreadyProcessed, err := s.processed.Exists(ctx, email.MessageID)
	if err != nil {
		return nil, fmt.Errorf("failed to check processed messages: %w", err)
	}
	if alreadyProcessed {
		s.logger.Debug("Message already processed, skipping",
			zap.String("message_id", email.MessageID))
		return nil, nil
	}

	if email.Body == "" {
		s.logger.Warn("Extracted email content is blank, skipping",
			zap.String("message_id", email.MessageID))
		return nil, nil
	}

	exists, err := s.orders.OrderNumberExists(ctx, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check order number: %w", err)
	}
	if exists {
		// Benign duplicate: still record the message so it is never
		// retried, but create no order.
		s.logger.Warn("Order number already exists, marking message processed without an order",
			zap.String("order_number", orderNumber),
			zap.String("message_id", email.MessageID))
		if err := s.saveProcessedRecord(ctx, email); err != nil {
			return nil, err
		}
		return nil, nil
	}

	orderDate, ok := ParseReceiptDate(email.Body)
	if !ok {
		// The body carries no recognizable date; the message sent day
		// is the only trustworthy stand-in. Never default to today.
		if email.SentAt.IsZero() {
			s.logger.Warn("No order date in body and no sent date on message, skipping",
				zap.String("message_id", email.MessageID))
			return nil, nil
		}
		orderDate = dayOf(email.SentAt)
	}

	if block := ExtractItemsBlock(email.Body); block == "" {
		s.logger.Warn("Could not extract items block, skipping",
			zap.String("order_number", orderNumber),
			zap.String("message_id", email.MessageID))
		return nil, nil
	}

	items := s.extractItems(ctx, email.Body)
	if len(items) == 0 {
		// Left unrecorded on purpose: the next batch retries the
		// message once the extractor is healthy again.
		s.logger.Warn("No items extracted from email content, skipping",
			zap.String("order_number", orderNumber),
			zap.String("message_id", email.MessageID))
		return nil, nil
	}

	order := &Order{
		OrderNumber:        orderNumber,
		OrderDate:          orderDate,
		Items:              items,
		ProcessedMessageID: email.MessageID,
	}

	if err := s.saveProcessedRecord(ctx, email); err != nil {
		return nil, err
	}

	saved, err := s.orders.SaveOrder(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("failed to save order %q: %w", orderNumber, err)
	}
	if err := s.processed.LinkOrder(ctx, email.MessageID, saved.ID); err != nil {
		return nil, fmt.Errorf("failed to link order to processed message: %w", err)
	}

	s.logger.Info("Saved new order",
		zap.Int64("order_id", saved.ID),
		zap.String("order_number", saved.OrderNumber),
		zap.Time("order_date", saved.OrderDate),
		zap.Int("items", len(saved.Items)),
		zap.String("message_id", email.MessageID))

	return saved, nil
}

// ProcessPhoto runs the pipeline for an uploaded receipt photo: OCR,
// header extraction, item extraction and persistence. Unlike the mail
// path the caller gets explicit errors, since there is a user waiting
// for the response.
func (s *ReceiptService) ProcessPhoto(ctx context.Context, image []byte) (*Order, error) {
	if s.ocr == nil {
		return nil, errors.New("ocr client is not configured")
	}

	text, err := s.ocr.ExtractText(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("text detection failed: %w", err)
	}
	if text == "" {
		return nil, ErrNoTextDetected
	}

	orderNumber, ok := ExtractPhotoOrderNumber(text)
	if !ok {
		return nil, ErrNoOrderNumber
	}
	orderDate, ok := ParseReceiptDate(text)
	if !ok {
		return nil, ErrNoOrderDate
	}

	exists, err := s.orders.OrderNumberExists(ctx, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check order number: %w", err)
	}
	if exists {
		return nil, ErrDuplicateOrder
	}

	items := s.extractItems(ctx, text)
	if len(items) == 0 {
		return nil, ErrNoItemsExtracted
	}

	// Uploads have no mail message id; a synthetic one keeps the
	// processed-message audit trail uniform across both paths.
	messageID := "receipt-upload-" + uuid.NewString()
	now := s.clock.Now()
	if err := s.processed.Save(ctx, &ProcessedMessage{
		MessageID:   messageID,
		SentAt:      now,
		ProcessedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("failed to save processed record: %w", err)
	}

	saved, err := s.orders.SaveOrder(ctx, &Order{
		OrderNumber:        orderNumber,
		OrderDate:          orderDate,
		Items:              items,
		ProcessedMessageID: messageID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save order %q: %w", orderNumber, err)
	}
	if err := s.processed.LinkOrder(ctx, messageID, saved.ID); err != nil {
		return nil, fmt.Errorf("failed to link order to processed message: %w", err)
	}

	s.logger.Info("Processed receipt photo",
		zap.String("order_number", saved.OrderNumber),
		zap.Int("items", len(saved.Items)))

	return saved, nil
}

// IsProcessed reports whether a message id has a processed record
func (s *ReceiptService) IsProcessed(ctx context.Context, messageID string) (bool, error) {
	return s.processed.Exists(ctx, messageID)
}

// extractItems calls the extraction model and normalizes its output.
// Extractor failures degrade to an empty list; they must never abort
// the batch that called us.
func (s *ReceiptService) extractItems(ctx context.Context, receiptText string) []ReceiptItem {
	response, err := s.extractor.ExtractItems(ctx, receiptText)
	if err != nil {
		s.logger.Warn("Item extraction failed", zap.Error(err))
		return nil
	}
	candidates := ParseCandidateItems(response)
	return NormalizeItems(candidates)
}

func (s *ReceiptService) saveProcessedRecord(ctx context.Context, email *Email) error {
	sentAt := email.SentAt
	if sentAt.IsZero() {
		sentAt = s.clock.Now()
	}
	rec := &ProcessedMessage{
		MessageID:   email.MessageID,
		SentAt:      sentAt,
		ProcessedAt: s.clock.Now(),
	}
	if err := s.processed.Save(ctx, rec); err != nil {
		return fmt.Errorf("failed to save processed record for %q: %w", email.MessageID, err)
	}
	return nil
}

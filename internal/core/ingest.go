package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SenderFilter gates which senders may feed receipts into the pipeline
type SenderFilter interface {
	// Allowed reports whether mail from the address should be processed
	Allowed(from string) bool
}

// MailIngestService runs one mailbox batch: acquire a session, fetch
// matching messages, process each one in isolation, release the
// session on every exit path.
type MailIngestService struct {
	source       MailSource
	receipts     *ReceiptService
	senderFilter SenderFilter
	logger       *zap.Logger
	minYear      int
	markRead     bool
}

// NewMailIngestService creates a new mail ingest service
func NewMailIngestService(
	source MailSource,
	receipts *ReceiptService,
	senderFilter SenderFilter,
	logger *zap.Logger,
	minYear int,
	markRead bool,
) *MailIngestService {
	return &MailIngestService{
		source:       source,
		receipts:     receipts,
		senderFilter: senderFilter,
		logger:       logger,
		minYear:      minYear,
		markRead:     markRead,
	}
}

// Run executes one polling batch. A failure opening the session aborts
// the batch; a failure on one message is logged and the batch moves on.
func (s *MailIngestService) Run(ctx context.Context) error {
	runID := uuid.NewString()
	log := s.logger.With(zap.String("batch_id", runID))
	log.Info("Starting mail ingest batch")

	session, err := s.source.Connect(ctx)
	if err != nil {
		return fmt.Errorf("failed to open mail session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Error("Failed to close mail session", zap.Error(err))
		}
	}()

	messages, err := session.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch messages: %w", err)
	}
	log.Info("Fetched messages", zap.Int("count", len(messages)))

	processed := 0
	for _, email := range messages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !s.eligible(email, log) {
			continue
		}

		order, err := s.receipts.ProcessEmail(ctx, email)
		if err != nil {
			// One bad message never aborts the batch.
			log.Error("Failed to process message",
				zap.String("message_id", email.MessageID),
				zap.Error(err))
			continue
		}
		if order != nil {
			processed++
		}

		s.markReadIfProcessed(ctx, session, email, log)
	}

	log.Info("Finished mail ingest batch",
		zap.Int("messages", len(messages)),
		zap.Int("orders_created", processed))
	return nil
}

// eligible applies the pre-pipeline message filters: minimum sent year
// and the sender allow-list.
func (s *MailIngestService) eligible(email *Email, log *zap.Logger) bool {
	if email.SentAt.IsZero() || email.SentAt.Year() < s.minYear {
		log.Debug("Message outside the ingest window, skipping",
			zap.String("message_id", email.MessageID),
			zap.Time("sent_at", email.SentAt))
		return false
	}
	if s.senderFilter != nil && !s.senderFilter.Allowed(email.From) {
		log.Debug("Sender not allowed, skipping",
			zap.String("message_id", email.MessageID),
			zap.String("from", email.From))
		return false
	}
	return true
}

// markReadIfProcessed flags a message read in the mailbox once a
// processed record exists for it, so handled mail stops showing as new.
func (s *MailIngestService) markReadIfProcessed(ctx context.Context, session MailSession, email *Email, log *zap.Logger) {
	if !s.markRead || email.MessageID == "" {
		return
	}
	done, err := s.receipts.IsProcessed(ctx, email.MessageID)
	if err != nil || !done {
		return
	}
	if err := session.MarkRead(ctx, email.MessageID); err != nil {
		log.Warn("Failed to mark message read",
			zap.String("message_id", email.MessageID),
			zap.Error(err))
	}
}

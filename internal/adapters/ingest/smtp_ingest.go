package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/shelfsense/shelfsense/internal/adapters/mailbox"
	"github.com/shelfsense/shelfsense/internal/config"
	"github.com/shelfsense/shelfsense/internal/core"
	"go.uber.org/zap"
)

// SMTPIngest runs an SMTP server that accepts forwarded receipt mail
// and feeds each delivery through the receipt pipeline. It lets a mail
// system push receipts instead of the poller pulling them.
type SMTPIngest struct {
	service      *core.ReceiptService
	senderFilter core.SenderFilter
	logger       *zap.Logger
	cfg          config.SMTPIngestConfig
	server       *smtp.Server
}

// NewSMTPIngest creates a new SMTP receipt intake server
func NewSMTPIngest(
	service *core.ReceiptService,
	senderFilter core.SenderFilter,
	logger *zap.Logger,
	cfg config.SMTPIngestConfig,
) *SMTPIngest {
	return &SMTPIngest{
		service:      service,
		senderFilter: senderFilter,
		logger:       logger,
		cfg:          cfg,
	}
}

// Start starts the SMTP server
func (s *SMTPIngest) Start() error {
	s.server = smtp.NewServer(&smtpBackend{ingest: s})

	s.server.Addr = s.cfg.ListenAddress
	s.server.Domain = s.cfg.Domain
	s.server.ReadTimeout = 30 * time.Second
	s.server.WriteTimeout = 30 * time.Second
	s.server.MaxMessageBytes = int64(s.cfg.MaxMessageBytes)
	s.server.MaxRecipients = 10
	s.server.AllowInsecureAuth = true

	s.logger.Info("SMTP receipt intake starting", zap.String("address", s.cfg.ListenAddress))

	go func() {
		if err := s.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				s.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the SMTP server
func (s *SMTPIngest) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	ingest *SMTPIngest
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		ingest:     b.ingest,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	ingest     *SMTPIngest
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// AuthPlain handles PLAIN authentication (not needed for the intake)
func (s *smtpSession) AuthPlain(_ []byte) error {
	return smtp.ErrAuthUnsupported
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	if s.ingest.senderFilter != nil && !s.ingest.senderFilter.Allowed(from) {
		return &smtp.SMTPError{
			Code:    550,
			Message: "sender not allowed",
		}
	}
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data runs the receipt pipeline on the delivered message
func (s *smtpSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.ingest.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	msg, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		s.ingest.logger.Error("Failed to parse email message", zap.Error(err))
		return err
	}

	textContent, err := mailbox.ExtractReceiptText(msg)
	if err != nil {
		s.ingest.logger.Error("Failed to extract text content", zap.Error(err))
		return err
	}

	email := &core.Email{
		MessageID: strings.Trim(msg.Header.Get("Message-Id"), "<>"),
		From:      s.sender,
		To:        s.recipients,
		Subject:   msg.Header.Get("Subject"),
		Body:      textContent,
		Headers:   make(map[string][]string),
	}
	for key, values := range msg.Header {
		email.Headers[key] = values
	}
	if date, err := msg.Header.Date(); err == nil {
		email.SentAt = date
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	order, err := s.ingest.service.ProcessEmail(ctx, email)
	if err != nil {
		s.ingest.logger.Error("Failed to process delivered receipt",
			zap.String("message_id", email.MessageID),
			zap.Error(err))
		return &smtp.SMTPError{
			Code:    451,
			Message: fmt.Sprintf("processing failed: %v", err),
		}
	}

	if order != nil {
		s.ingest.logger.Info("Processed delivered receipt",
			zap.String("message_id", email.MessageID),
			zap.String("order_number", order.OrderNumber),
			zap.Int("items", len(order.Items)))
	} else {
		s.ingest.logger.Debug("Delivered message produced no order",
			zap.String("message_id", email.MessageID))
	}

	return nil
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}

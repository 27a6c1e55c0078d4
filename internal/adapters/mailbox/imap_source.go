package mailbox

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/shelfsense/shelfsense/internal/config"
	"github.com/shelfsense/shelfsense/internal/core"
	"go.uber.org/zap"
)

// Source opens IMAP sessions against the configured mailbox
type Source struct {
	cfg    config.MailConfig
	logger *zap.Logger
}

// NewSource creates a new IMAP mail source
func NewSource(cfg config.MailConfig, logger *zap.Logger) *Source {
	return &Source{
		cfg:    cfg,
		logger: logger,
	}
}

// Connect dials the IMAP server, logs in and selects the receipt folder
func (s *Source) Connect(ctx context.Context) (core.MailSession, error) {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	c, err := client.DialTLS(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial IMAP server %s: %w", addr, err)
	}

	if err := c.Login(s.cfg.Username, s.cfg.Password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("failed to log in to IMAP server: %w", err)
	}

	if _, err := c.Select(s.cfg.Folder, false); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("failed to select folder %q: %w", s.cfg.Folder, err)
	}

	s.logger.Debug("Connected to mailbox",
		zap.String("host", s.cfg.Host),
		zap.String("folder", s.cfg.Folder))

	return &session{
		client:        c,
		subjectFilter: s.cfg.SubjectFilter,
		logger:        s.logger,
		seqNums:       make(map[string]uint32),
	}, nil
}

// session is one open IMAP session. It remembers the sequence number of
// every fetched message so MarkRead can address them later.
type session struct {
	client        *client.Client
	subjectFilter string
	logger        *zap.Logger
	seqNums       map[string]uint32
}

// Fetch returns the messages whose subject matches the configured filter
func (s *session) Fetch(ctx context.Context) ([]*core.Email, error) {
	criteria := imap.NewSearchCriteria()
	if s.subjectFilter != "" {
		criteria.Header.Add("Subject", s.subjectFilter)
	}

	ids, err := s.client.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search mailbox: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, section.FetchItem()}

	messages := make(chan *imap.Message, len(ids))
	done := make(chan error, 1)
	go func() {
		done <- s.client.Fetch(seqset, items, messages)
	}()

	var emails []*core.Email
	for msg := range messages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		email, err := s.buildEmail(msg, section)
		if err != nil {
			s.logger.Warn("Failed to parse fetched message",
				zap.Uint32("seq_num", msg.SeqNum),
				zap.Error(err))
			continue
		}
		if email == nil {
			continue
		}

		s.seqNums[email.MessageID] = msg.SeqNum
		emails = append(emails, email)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	s.logger.Debug("Fetched messages from mailbox",
		zap.Int("matched", len(ids)),
		zap.Int("parsed", len(emails)))

	return emails, nil
}

// buildEmail converts a fetched IMAP message into a domain email
func (s *session) buildEmail(msg *imap.Message, section *imap.BodySectionName) (*core.Email, error) {
	if msg.Envelope == nil {
		return nil, fmt.Errorf("message has no envelope")
	}

	body := msg.GetBody(section)
	if body == nil {
		return nil, fmt.Errorf("message has no body section")
	}

	parsed, err := mail.ReadMessage(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}

	text, err := ExtractReceiptText(parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to extract message text: %w", err)
	}

	from := ""
	if len(msg.Envelope.From) > 0 {
		from = msg.Envelope.From[0].Address()
	}

	var to []string
	for _, addr := range msg.Envelope.To {
		to = append(to, addr.Address())
	}

	headers := make(map[string][]string)
	for key, values := range parsed.Header {
		headers[key] = values
	}

	messageID := strings.Trim(msg.Envelope.MessageId, "<>")
	if messageID == "" {
		return nil, fmt.Errorf("message has no message id")
	}

	return &core.Email{
		MessageID: messageID,
		From:      from,
		To:        to,
		Subject:   msg.Envelope.Subject,
		Body:      text,
		SentAt:    msg.Envelope.Date,
		Headers:   headers,
	}, nil
}

// MarkRead flags the message as seen
func (s *session) MarkRead(ctx context.Context, messageID string) error {
	seqNum, ok := s.seqNums[messageID]
	if !ok {
		return fmt.Errorf("message %q was not fetched in this session", messageID)
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(seqNum)

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.SeenFlag}
	if err := s.client.Store(seqset, item, flags, nil); err != nil {
		return fmt.Errorf("failed to mark message as read: %w", err)
	}
	return nil
}

// Close logs out of the IMAP session
func (s *session) Close() error {
	return s.client.Logout()
}

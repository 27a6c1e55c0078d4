package factory

import (
	"github.com/shelfsense/shelfsense/internal/adapters/mailbox"
	"github.com/shelfsense/shelfsense/internal/config"
	"github.com/shelfsense/shelfsense/internal/core"
	"github.com/shelfsense/shelfsense/internal/senderfilter"
	"go.uber.org/zap"
)

// MailFactory creates the mailbox source and its sender filter
type MailFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewMailFactory creates a new mail factory
func NewMailFactory(cfg *config.Config, logger *zap.Logger) *MailFactory {
	return &MailFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateMailSource creates the IMAP mail source, or nil when mailbox
// polling is disabled
func (f *MailFactory) CreateMailSource() (core.MailSource, error) {
	mailCfg, err := f.cfg.GetMail()
	if err != nil {
		return nil, err
	}
	if !mailCfg.Enabled {
		f.logger.Info("Mailbox polling is disabled")
		return nil, nil
	}
	return mailbox.NewSource(mailCfg, f.logger), nil
}

// CreateSenderFilter creates the sender allow-list filter
func (f *MailFactory) CreateSenderFilter() (core.SenderFilter, error) {
	mailCfg, err := f.cfg.GetMail()
	if err != nil {
		return nil, err
	}
	return senderfilter.NewChecker(mailCfg.AllowedDomains, f.logger), nil
}

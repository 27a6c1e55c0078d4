package factory

import (
	"github.com/shelfsense/shelfsense/internal/adapters/httpapi"
	"github.com/shelfsense/shelfsense/internal/adapters/ingest"
	"github.com/shelfsense/shelfsense/internal/config"
	"github.com/shelfsense/shelfsense/internal/core"
	"github.com/shelfsense/shelfsense/internal/ports"
	"go.uber.org/zap"
)

// IngestorFactory creates the configured receipt intake surfaces
type IngestorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewIngestorFactory creates a new ingestor factory
func NewIngestorFactory(cfg *config.Config, logger *zap.Logger) *IngestorFactory {
	return &IngestorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateIngestors creates every intake surface enabled in configuration
func (f *IngestorFactory) CreateIngestors(
	receipts *core.ReceiptService,
	senderFilter core.SenderFilter,
	stores *Stores,
) ([]ports.Ingestor, error) {
	var ingestors []ports.Ingestor

	smtpCfg := f.cfg.GetSMTPIngest()
	if smtpCfg.Enabled {
		ingestors = append(ingestors, ingest.NewSMTPIngest(receipts, senderFilter, f.logger, smtpCfg))
	}

	httpCfg := f.cfg.GetHTTP()
	if httpCfg.Enabled {
		ingestors = append(ingestors, httpapi.NewServer(
			stores.Orders, stores.Suggestions, receipts, f.logger, httpCfg))
	}

	return ingestors, nil
}

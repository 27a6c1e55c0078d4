package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/shelfsense/shelfsense/internal/config"
	"github.com/shelfsense/shelfsense/internal/core"
	"github.com/shelfsense/shelfsense/internal/factory"
	"github.com/shelfsense/shelfsense/internal/logging"
	"github.com/shelfsense/shelfsense/internal/ports"
	"github.com/shelfsense/shelfsense/internal/scheduler"
	"github.com/shelfsense/shelfsense/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewOCRFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewMailFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewIngestorFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register item extractor
	if err := container.Provide(func(f *factory.LLMFactory) (core.ItemExtractor, error) {
		return f.CreateItemExtractor()
	}); err != nil {
		return nil, err
	}

	// Register storage backend
	if err := container.Provide(func(f *factory.StoreFactory) (*factory.Stores, error) {
		return f.CreateStores()
	}); err != nil {
		return nil, err
	}

	// Register OCR client (nil when the photo path is disabled)
	if err := container.Provide(func(f *factory.OCRFactory) (core.OCRClient, error) {
		return f.CreateOCRClient(context.Background())
	}); err != nil {
		return nil, err
	}

	// Register mail source and sender filter
	if err := container.Provide(func(f *factory.MailFactory) (core.MailSource, error) {
		return f.CreateMailSource()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.MailFactory) (core.SenderFilter, error) {
		return f.CreateSenderFilter()
	}); err != nil {
		return nil, err
	}

	// Register receipt service
	if err := container.Provide(func(
		extractor core.ItemExtractor,
		ocr core.OCRClient,
		stores *factory.Stores,
		logger *zap.Logger,
	) *core.ReceiptService {
		return core.NewReceiptService(extractor, ocr, stores.Orders, stores.Processed, logger, nil)
	}); err != nil {
		return nil, err
	}

	// Register cadence engine and suggestion service
	if err := container.Provide(func() *core.CadenceEngine {
		return core.NewCadenceEngine(nil)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(
		stores *factory.Stores,
		engine *core.CadenceEngine,
		logger *zap.Logger,
	) *core.SuggestionService {
		return core.NewSuggestionService(stores.Orders, stores.Suggestions, engine, logger)
	}); err != nil {
		return nil, err
	}

	// Register mail ingest service (nil when polling is disabled)
	if err := container.Provide(func(
		source core.MailSource,
		receipts *core.ReceiptService,
		senderFilter core.SenderFilter,
		cfg *config.Config,
		logger *zap.Logger,
	) (*core.MailIngestService, error) {
		if source == nil {
			return nil, nil
		}
		mailCfg, err := cfg.GetMail()
		if err != nil {
			return nil, err
		}
		return core.NewMailIngestService(
			source, receipts, senderFilter, logger, mailCfg.MinYear, mailCfg.MarkRead), nil
	}); err != nil {
		return nil, err
	}

	// Register scheduler
	if err := container.Provide(func(
		mailIngest *core.MailIngestService,
		suggestions *core.SuggestionService,
		cfg *config.Config,
		logger *zap.Logger,
	) (*scheduler.Scheduler, error) {
		mailCfg, err := cfg.GetMail()
		if err != nil {
			return nil, err
		}
		suggestCfg := cfg.GetSuggest()
		return scheduler.New(
			mailIngest,
			suggestions,
			logger,
			mailCfg.PollInterval,
			suggestCfg.RunAt,
			suggestCfg.RunOnStart,
		), nil
	}); err != nil {
		return nil, err
	}

	// Register intake surfaces
	if err := container.Provide(func(
		f *factory.IngestorFactory,
		receipts *core.ReceiptService,
		senderFilter core.SenderFilter,
		stores *factory.Stores,
	) ([]ports.Ingestor, error) {
		return f.CreateIngestors(receipts, senderFilter, stores)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

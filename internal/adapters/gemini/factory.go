package gemini

import (
	"github.com/shelfsense/shelfsense/internal/config"
	"github.com/shelfsense/shelfsense/internal/core"
	"github.com/shelfsense/shelfsense/internal/utils"
	"go.uber.org/zap"
)

// Factory creates new instances of ExtractorClient
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for ExtractorClient instances
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateItemExtractor creates a new ExtractorClient
func (f *Factory) CreateItemExtractor() (core.ItemExtractor, error) {
	geminiCfg := f.cfg.GetGemini()

	client, err := NewExtractorClient(
		geminiCfg.APIKey,
		geminiCfg.ModelName,
		geminiCfg.MaxTokens,
		geminiCfg.Temperature,
		geminiCfg.TopP,
		geminiCfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}

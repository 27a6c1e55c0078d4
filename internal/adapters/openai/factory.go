package openai

import (
	"github.com/sashabaranov/go-openai"
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
	openaiCfg := f.cfg.GetOpenAI()

	// A custom base URL points the client at an OpenAI-compatible
	// local server such as LM Studio.
	clientCfg := openai.DefaultConfig(openaiCfg.APIKey)
	if openaiCfg.BaseURL != "" {
		clientCfg.BaseURL = openaiCfg.BaseURL
	}
	client := openai.NewClientWithConfig(clientCfg)

	return NewExtractorClient(
		client,
		openaiCfg.ModelName,
		openaiCfg.MaxTokens,
		openaiCfg.Temperature,
		openaiCfg.TopP,
		openaiCfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	), nil
}

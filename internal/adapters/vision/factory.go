package vision

import (
	"context"

	"github.com/shelfsense/shelfsense/internal/config"
	"github.com/shelfsense/shelfsense/internal/core"
	"go.uber.org/zap"
)

// Factory creates new instances of OCRClient
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for OCRClient instances
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateOCRClient creates a new OCRClient
func (f *Factory) CreateOCRClient(ctx context.Context) (core.OCRClient, error) {
	ocrCfg := f.cfg.GetOCR()
	client, err := NewOCRClient(ctx, ocrCfg.CredentialsFile, f.logger)
	if err != nil {
		return nil, err
	}
	return client, nil
}

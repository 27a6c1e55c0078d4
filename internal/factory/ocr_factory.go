package factory

import (
	"context"

	"github.com/shelfsense/shelfsense/internal/adapters/vision"
	"github.com/shelfsense/shelfsense/internal/config"
	"github.com/shelfsense/shelfsense/internal/core"
	"go.uber.org/zap"
)

// OCRFactory creates OCR clients
type OCRFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewOCRFactory creates a new OCR factory
func NewOCRFactory(cfg *config.Config, logger *zap.Logger) *OCRFactory {
	return &OCRFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateOCRClient creates an OCR client, or nil when the photo path is
// disabled in configuration
func (f *OCRFactory) CreateOCRClient(ctx context.Context) (core.OCRClient, error) {
	ocrCfg := f.cfg.GetOCR()
	if !ocrCfg.Enabled {
		f.logger.Info("OCR is disabled, receipt photo uploads will be rejected")
		return nil, nil
	}

	factory := vision.NewFactory(f.cfg, f.logger)
	return factory.CreateOCRClient(ctx)
}

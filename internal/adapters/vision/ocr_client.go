package vision

import (
	"context"
	"encoding/base64"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"
)

// OCRClient is an implementation of the OCRClient interface using Google Cloud Vision
type OCRClient struct {
	service *vision.Service
	logger  *zap.Logger
}

// NewOCRClient creates a new Cloud Vision text detection client
func NewOCRClient(ctx context.Context, credentialsFile string, logger *zap.Logger) (*OCRClient, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	service, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vision service: %w", err)
	}

	return &OCRClient{
		service: service,
		logger:  logger,
	}, nil
}

// ExtractText runs text detection on the image and returns the full detected text
func (c *OCRClient) ExtractText(ctx context.Context, image []byte) (string, error) {
	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{
			{
				Image: &vision.Image{
					Content: base64.StdEncoding.EncodeToString(image),
				},
				Features: []*vision.Feature{
					{Type: "TEXT_DETECTION"},
				},
			},
		},
	}

	resp, err := c.service.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to annotate image: %w", err)
	}

	if len(resp.Responses) == 0 {
		return "", fmt.Errorf("empty response from Vision API")
	}

	annotation := resp.Responses[0]
	if annotation.Error != nil {
		return "", fmt.Errorf("text detection failed: %s", annotation.Error.Message)
	}

	// The first annotation carries the full detected text, the rest
	// are per-word boxes.
	if len(annotation.TextAnnotations) == 0 {
		c.logger.Warn("No text detected in image", zap.Int("image_bytes", len(image)))
		return "", nil
	}

	text := annotation.TextAnnotations[0].Description
	c.logger.Debug("Extracted text from image",
		zap.Int("image_bytes", len(image)),
		zap.Int("text_length", len(text)))

	return text, nil
}

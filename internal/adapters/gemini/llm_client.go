package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/shelfsense/shelfsense/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// ExtractorClient is an implementation of the ItemExtractor interface using Google Gemini
type ExtractorClient struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	promptFormat  string
}

// NewExtractorClient creates a new Gemini-backed receipt item extractor
func NewExtractorClient(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*ExtractorClient, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &ExtractorClient{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
		promptFormat: `You are a specialized grocery receipt analyzer.

Your task is to extract all product items from the receipt text below and return only valid JSON in the same order as receipt and same number of items as in receipt that matches the following schema:

{
  "products_list": [
    {
      "product_name": "string (exactly as on receipt)",
      "quantity": "number or string (e.g., 1 or '0.5')",
      "weight": "string (exactly as on receipt including the unit - e.g., '125 g', '1 stk', '1,1 kg', '350 g')",
      "general_name": "string (the basic product name without details - e.g., Bringebær → Raspberry, Tørkerull → Paper Towels)",
      "food_type": "one of the predefined categories listed below"
    }
  ]
}

For each product, extract and classify the following:
1. product_name – the exact name as printed on the receipt.
2. quantity – the total count or measurable quantity purchased (e.g., 1, 2, 0.5).
3. weight – extract the complete weight or volume specification including units as shown on receipt.
4. general_name – the basic name of the item (e.g., for 'Bringebær Marokko / Portugal' the general_name is 'Raspberry').
   The general_name should be simplified compared to product_name and MUST NOT be identical to food_type.
5. food_type – select the closest matching value from the list below:

Soft Fruits, Hard Fruits, Citrus Fruits, Berries,
Root Vegetables, Cruciferous Vegetables, Squash & Gourds, Tomatoes & Peppers,
Herbs, Proteins, Bakery & Bread, Frozen Foods, Grains, Pasta & Noodles,
Cooking Oils, Flour, Sugar, Baking Ingredients, Salt & Pepper, Nut Butters,
Condiments, Sauces, Dried Fruits, Nuts & Seeds, Snacks, Dairy, Legumes,
Whole Spices, Powdered Spices, Kitchen hygiene, Bathroom hygiene

Ensure:
- Output is a single JSON object.
- Look carefully at the receipt format to extract the correct weight/volume/unit information.
- Pay special attention to items that have weight specifications at the end of product descriptions.
- For general_name, provide the basic ingredient/product name, not the category.
- Do not include any extra explanation or commentary, just the raw JSON.

Receipt Text:
%s`,
	}, nil
}

// Close closes the Gemini client
func (c *ExtractorClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// ExtractItems sends the receipt text to Gemini and returns the raw model response
func (c *ExtractorClient) ExtractItems(ctx context.Context, receiptText string) (string, error) {
	processed := c.textProcessor.ProcessText(receiptText, c.maxBodySize)
	prompt := fmt.Sprintf(c.promptFormat, processed)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	responseText := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])

	c.logger.Debug("Received extraction response from Gemini",
		zap.String("model", c.modelName))

	return responseText, nil
}

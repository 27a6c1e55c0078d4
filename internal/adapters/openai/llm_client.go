package openai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/shelfsense/shelfsense/internal/utils"
	"go.uber.org/zap"
)

// ExtractorClient is an implementation of the ItemExtractor interface using OpenAI
type ExtractorClient struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	promptFormat  string
}

// NewExtractorClient creates a new OpenAI-backed receipt item extractor
func NewExtractorClient(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *ExtractorClient {
	return &ExtractorClient{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
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
	}
}

// ExtractItems sends the receipt text to OpenAI and returns the raw model response
func (c *ExtractorClient) ExtractItems(ctx context.Context, receiptText string) (string, error) {
	processed := c.textProcessor.ProcessText(receiptText, c.maxBodySize)
	prompt := fmt.Sprintf(c.promptFormat, processed)

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a grocery receipt analyzer. Respond only with JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	c.logger.Debug("Received extraction response from OpenAI",
		zap.String("model", c.modelName),
		zap.String("processing_id", resp.ID))

	return resp.Choices[0].Message.Content, nil
}

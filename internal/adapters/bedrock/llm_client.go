package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/shelfsense/shelfsense/internal/utils"
	"go.uber.org/zap"
)

// ExtractorClient is an implementation of the ItemExtractor interface using Amazon Bedrock
type ExtractorClient struct {
	client        *bedrockruntime.Client
	modelID       string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	promptFormat  string
}

// NewExtractorClient creates a new Bedrock-backed receipt item extractor
func NewExtractorClient(
	client *bedrockruntime.Client,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *ExtractorClient {
	return &ExtractorClient{
		client:        client,
		modelID:       modelID,
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

// ExtractItems sends the receipt text to Bedrock and returns the raw model response
func (c *ExtractorClient) ExtractItems(ctx context.Context, receiptText string) (string, error) {
	processed := c.textProcessor.ProcessText(receiptText, c.maxBodySize)
	prompt := fmt.Sprintf(c.promptFormat, processed)

	// Create the request based on the model
	var payload []byte
	var err error

	if c.isAnthropicModel() {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":               prompt,
			"max_tokens_to_sample": c.maxTokens,
			"temperature":          c.temperature,
			"top_p":                c.topP,
		})
	} else if c.isAmazonTitanModel() {
		payload, err = json.Marshal(map[string]interface{}{
			"inputText": prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": c.maxTokens,
				"temperature":   c.temperature,
				"topP":          c.topP,
			},
		})
	} else {
		// Default to a generic format
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  c.maxTokens,
			"temperature": c.temperature,
			"top_p":       c.topP,
		})
	}

	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &c.modelID,
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	// Parse the response based on the model
	var responseText string

	if c.isAnthropicModel() {
		var claudeResp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(resp.Body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		responseText = claudeResp.Completion
	} else if c.isAmazonTitanModel() {
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(resp.Body, &titanResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(titanResp.Results) > 0 {
			responseText = titanResp.Results[0].OutputText
		} else {
			return "", fmt.Errorf("empty response from Titan model")
		}
	} else {
		// Try a generic approach
		var genericResp struct {
			Output   string `json:"output"`
			Text     string `json:"text"`
			Response string `json:"response"`
		}
		if err := json.Unmarshal(resp.Body, &genericResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal generic response: %w", err)
		}

		if genericResp.Output != "" {
			responseText = genericResp.Output
		} else if genericResp.Text != "" {
			responseText = genericResp.Text
		} else if genericResp.Response != "" {
			responseText = genericResp.Response
		} else {
			// Just use the raw response as a string
			responseText = string(resp.Body)
		}
	}

	c.logger.Debug("Received extraction response from Bedrock",
		zap.String("model_id", c.modelID))

	return responseText, nil
}

// isAnthropicModel checks if the model is an Anthropic Claude model
func (c *ExtractorClient) isAnthropicModel() bool {
	return strings.HasPrefix(c.modelID, "anthropic.claude")
}

// isAmazonTitanModel checks if the model is an Amazon Titan model
func (c *ExtractorClient) isAmazonTitanModel() bool {
	return strings.HasPrefix(c.modelID, "amazon.titan")
}

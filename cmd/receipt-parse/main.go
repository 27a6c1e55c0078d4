package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/shelfsense/shelfsense/internal/adapters/mailbox"
	"github.com/shelfsense/shelfsense/internal/adapters/store"
	"github.com/shelfsense/shelfsense/internal/config"
	"github.com/shelfsense/shelfsense/internal/core"
	"github.com/shelfsense/shelfsense/internal/factory"
	"github.com/shelfsense/shelfsense/internal/logging"
	"go.uber.org/zap"
)

var (
	// LLM provider flags
	provider    = flag.String("provider", "openai", "LLM provider (bedrock, gemini, openai)")
	maxTokens   = flag.Int("max-tokens", 2000, "Maximum tokens for LLM response")
	temperature = flag.Float64("temperature", 0.0, "Temperature for LLM generation")
	topP        = flag.Float64("top-p", 0.1, "Top-p for LLM generation")
	maxBodySize = flag.Int("max-body-size", 8192, "Maximum receipt text size to send to LLM")

	// Bedrock flags
	bedrockRegion  = flag.String("bedrock-region", "us-east-1", "AWS region for Bedrock")
	bedrockModelID = flag.String("bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Gemini flags
	geminiAPIKey    = flag.String("gemini-api-key", "", "API key for Google Gemini")
	geminiModelName = flag.String("gemini-model", "gemini-pro", "Gemini model name")

	// OpenAI flags
	openaiAPIKey    = flag.String("openai-api-key", "", "API key for OpenAI")
	openaiBaseURL   = flag.String("openai-base-url", "", "Base URL for an OpenAI-compatible server")
	openaiModelName = flag.String("openai-model", "gpt-4o-mini", "OpenAI model name")

	// Input flags
	inputFile  = flag.String("file", "", "Input receipt email file (use stdin if not specified)")
	rawText    = flag.Bool("text", false, "Treat input as bare receipt text instead of an email")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var cfg *config.Config
	if *configFile != "" {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		cfg = createConfigFromFlags()
	}

	// Initialize the item extractor
	textProcessor := factory.NewTextProcessorFactory(logger).CreateTextProcessor()
	llmFactory := factory.NewLLMFactory(cfg, logger, textProcessor)
	extractor, err := llmFactory.CreateItemExtractor()
	if err != nil {
		logger.Fatal("Failed to create item extractor", zap.Error(err))
	}

	input, err := readInput(logger)
	if err != nil {
		logger.Fatal("Failed to read input", zap.Error(err))
	}

	startTime := time.Now()

	var order *core.Order
	if *rawText {
		order, err = parseText(extractor, input, logger)
	} else {
		order, err = parseEmail(extractor, input, logger)
	}
	if err != nil {
		logger.Fatal("Failed to parse receipt", zap.Error(err))
	}

	printOrder(order, time.Since(startTime))

	// Close any resources that need closing
	if closer, ok := extractor.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close item extractor", zap.Error(err))
		}
	}
}

// readInput reads the receipt from the input file or stdin
func readInput(logger *zap.Logger) ([]byte, error) {
	if *inputFile != "" {
		logger.Info("Reading receipt from file", zap.String("file", *inputFile))
		return os.ReadFile(*inputFile)
	}
	logger.Info("Reading receipt from stdin")
	return io.ReadAll(bufio.NewReader(os.Stdin))
}

// parseEmail runs the mail pipeline against an in-memory store and
// returns the order it produced
func parseEmail(extractor core.ItemExtractor, input []byte, logger *zap.Logger) (*core.Order, error) {
	msg, err := mail.ReadMessage(strings.NewReader(string(input)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse email: %w", err)
	}

	body, err := mailbox.ExtractReceiptText(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to extract email text: %w", err)
	}

	email := &core.Email{
		MessageID: strings.Trim(msg.Header.Get("Message-Id"), "<>"),
		From:      msg.Header.Get("From"),
		Subject:   msg.Header.Get("Subject"),
		Body:      body,
		Headers:   make(map[string][]string),
	}
	if email.MessageID == "" {
		email.MessageID = "cli-input"
	}
	if date, err := msg.Header.Date(); err == nil {
		email.SentAt = date
	}
	for k, v := range msg.Header {
		email.Headers[k] = v
	}

	backend := store.NewMemoryStore(logger)
	service := core.NewReceiptService(extractor, nil, backend, backend, logger, nil)

	order, err := service.ProcessEmail(context.Background(), email)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("no order produced; see the log for the skip reason")
	}
	return order, nil
}

// parseText runs the photo-style header extraction over bare receipt
// text, then the item extractor
func parseText(extractor core.ItemExtractor, input []byte, logger *zap.Logger) (*core.Order, error) {
	text := string(input)

	orderNumber, ok := core.ExtractPhotoOrderNumber(text)
	if !ok {
		return nil, core.ErrNoOrderNumber
	}
	orderDate, ok := core.ParseReceiptDate(text)
	if !ok {
		return nil, core.ErrNoOrderDate
	}

	response, err := extractor.ExtractItems(context.Background(), text)
	if err != nil {
		return nil, fmt.Errorf("item extraction failed: %w", err)
	}
	items := core.NormalizeItems(core.ParseCandidateItems(response))
	if len(items) == 0 {
		return nil, core.ErrNoItemsExtracted
	}

	return &core.Order{
		OrderNumber: orderNumber,
		OrderDate:   orderDate,
		Items:       items,
	}, nil
}

// printOrder writes the parsed order as indented JSON
func printOrder(order *core.Order, duration time.Duration) {
	type itemOut struct {
		ProductName    string `json:"product_name"`
		Quantity       int    `json:"quantity"`
		WeightOrVolume string `json:"weight_or_volume,omitempty"`
		GeneralName    string `json:"general_name,omitempty"`
		FoodType       string `json:"food_type,omitempty"`
	}
	out := struct {
		OrderNumber string    `json:"order_number"`
		OrderDate   string    `json:"order_date"`
		Items       []itemOut `json:"items"`
	}{
		OrderNumber: order.OrderNumber,
		OrderDate:   order.OrderDate.Format("2006-01-02"),
	}
	for _, item := range order.Items {
		out.Items = append(out.Items, itemOut{
			ProductName:    item.RawName,
			Quantity:       item.Quantity,
			WeightOrVolume: item.WeightOrVolume,
			GeneralName:    item.GeneralName,
			FoodType:       item.FoodType,
		})
	}

	encoded, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(encoded))
	fmt.Printf("\nParsed %d items in %v\n", len(out.Items), duration)
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	v.Set("llm.provider", *provider)

	switch *provider {
	case "bedrock":
		v.Set("bedrock.region", *bedrockRegion)
		v.Set("bedrock.model_id", *bedrockModelID)
		v.Set("bedrock.max_tokens", *maxTokens)
		v.Set("bedrock.temperature", *temperature)
		v.Set("bedrock.top_p", *topP)
		v.Set("bedrock.max_body_size", *maxBodySize)
	case "gemini":
		v.Set("gemini.api_key", *geminiAPIKey)
		v.Set("gemini.model_name", *geminiModelName)
		v.Set("gemini.max_tokens", *maxTokens)
		v.Set("gemini.temperature", *temperature)
		v.Set("gemini.top_p", *topP)
		v.Set("gemini.max_body_size", *maxBodySize)
	case "openai":
		v.Set("openai.api_key", *openaiAPIKey)
		v.Set("openai.base_url", *openaiBaseURL)
		v.Set("openai.model_name", *openaiModelName)
		v.Set("openai.max_tokens", *maxTokens)
		v.Set("openai.temperature", *temperature)
		v.Set("openai.top_p", *topP)
		v.Set("openai.max_body_size", *maxBodySize)
	}

	return config.NewFromViper(v)
}

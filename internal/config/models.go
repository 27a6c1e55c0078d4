package config

import "time"

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// OCRConfig represents the configuration for the OCR backend
type OCRConfig struct {
	Enabled         bool
	CredentialsFile string
}

// MailConfig represents the configuration for the mailbox poller
type MailConfig struct {
	Enabled        bool
	Host           string
	Port           int
	Username       string
	Password       string
	Folder         string
	SubjectFilter  string
	MinYear        int
	MarkRead       bool
	PollInterval   time.Duration
	AllowedDomains []string
}

// SMTPIngestConfig represents the configuration for the SMTP intake server
type SMTPIngestConfig struct {
	Enabled         bool
	ListenAddress   string
	Domain          string
	MaxMessageBytes int
}

// StorageConfig represents the configuration for order storage
type StorageConfig struct {
	Type       string
	SQLitePath string
	MySQLDSN   string
}

// SuggestConfig represents the configuration for the daily suggestion run
type SuggestConfig struct {
	RunAt      string
	RunOnStart bool
}

// HTTPConfig represents the configuration for the HTTP API
type HTTPConfig struct {
	Enabled       bool
	ListenAddress string
	BodyLimit     int
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetOCR returns the OCR configuration
func (c *Config) GetOCR() OCRConfig {
	return OCRConfig{
		Enabled:         c.GetBool("ocr.enabled"),
		CredentialsFile: c.GetString("ocr.credentials_file"),
	}
}

// GetMail returns the mailbox poller configuration
func (c *Config) GetMail() (MailConfig, error) {
	pollInterval, err := c.GetDuration("mail.poll_interval")
	if err != nil {
		return MailConfig{}, err
	}
	return MailConfig{
		Enabled:        c.GetBool("mail.enabled"),
		Host:           c.GetString("mail.host"),
		Port:           c.GetInt("mail.port"),
		Username:       c.GetString("mail.username"),
		Password:       c.GetString("mail.password"),
		Folder:         c.GetString("mail.folder"),
		SubjectFilter:  c.GetString("mail.subject_filter"),
		MinYear:        c.GetInt("mail.min_year"),
		MarkRead:       c.GetBool("mail.mark_read"),
		PollInterval:   pollInterval,
		AllowedDomains: c.GetStringSlice("mail.allowed_domains"),
	}, nil
}

// GetSMTPIngest returns the SMTP intake server configuration
func (c *Config) GetSMTPIngest() SMTPIngestConfig {
	return SMTPIngestConfig{
		Enabled:         c.GetBool("smtp_ingest.enabled"),
		ListenAddress:   c.GetString("smtp_ingest.listen_address"),
		Domain:          c.GetString("smtp_ingest.domain"),
		MaxMessageBytes: c.GetInt("smtp_ingest.max_message_bytes"),
	}
}

// GetStorage returns the storage configuration
func (c *Config) GetStorage() StorageConfig {
	return StorageConfig{
		Type:       c.GetString("storage.type"),
		SQLitePath: c.GetString("storage.sqlite_path"),
		MySQLDSN:   c.GetString("storage.mysql_dsn"),
	}
}

// GetSuggest returns the daily suggestion run configuration
func (c *Config) GetSuggest() SuggestConfig {
	return SuggestConfig{
		RunAt:      c.GetString("suggest.run_at"),
		RunOnStart: c.GetBool("suggest.run_on_start"),
	}
}

// GetHTTP returns the HTTP API configuration
func (c *Config) GetHTTP() HTTPConfig {
	return HTTPConfig{
		Enabled:       c.GetBool("http.enabled"),
		ListenAddress: c.GetString("http.listen_address"),
		BodyLimit:     c.GetInt("http.body_limit"),
	}
}

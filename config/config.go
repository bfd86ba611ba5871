package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	// LLM backend configuration
	LLM     LLMConfig
	OpenAI  OpenAIConfig
	Bedrock BedrockConfig

	// External service configurations
	FMP     FMPConfig
	NewsAPI NewsAPIConfig
	Alpaca  AlpacaConfig

	// Pipeline configuration
	Pipeline PipelineConfig

	// Database configuration (optional run audit log)
	Database DatabaseConfig

	// HTTP configuration
	HTTP HTTPConfig
}

// LLMConfig selects the language model backend
type LLMConfig struct {
	Backend string // openai or bedrock
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// BedrockConfig holds AWS Bedrock configuration
type BedrockConfig struct {
	Region  string
	ModelID string
}

// FMPConfig holds Financial Modeling Prep API configuration
type FMPConfig struct {
	APIKey string
}

// NewsAPIConfig holds NewsAPI configuration
type NewsAPIConfig struct {
	APIKey string
}

// AlpacaConfig holds Alpaca market data configuration
type AlpacaConfig struct {
	APIKey    string
	APISecret string
}

// PipelineConfig holds research pipeline configuration
type PipelineConfig struct {
	StageTimeoutSeconds   int
	NewsLookbackDays      int
	NewsPageSize          int
	TechnicalLookbackDays int
	HealthCacheTTLSeconds int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Addr               string
	AccessSecret       string
	CORSAllowedOrigins string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		LLM: LLMConfig{
			Backend: getEnvString("LLM_BACKEND", "openai"),
		},
		OpenAI: OpenAIConfig{
			APIKey:    os.Getenv("OPENAI_API_KEY"),
			Model:     getEnvString("OPENAI_MODEL", "gpt-4o"),
			MaxTokens: getEnvInt("OPENAI_MAX_TOKENS", 4096),
		},
		Bedrock: BedrockConfig{
			Region:  os.Getenv("AWS_REGION"),
			ModelID: os.Getenv("BEDROCK_MODEL_ID"),
		},
		FMP: FMPConfig{
			APIKey: os.Getenv("FMP_API_KEY"),
		},
		NewsAPI: NewsAPIConfig{
			APIKey: os.Getenv("NEWS_API_KEY"),
		},
		Alpaca: AlpacaConfig{
			APIKey:    os.Getenv("ALPACA_API_KEY"),
			APISecret: os.Getenv("ALPACA_API_SECRET"),
		},
		Pipeline: PipelineConfig{
			StageTimeoutSeconds:   getEnvInt("PIPELINE_STAGE_TIMEOUT_SECONDS", 60),
			NewsLookbackDays:      getEnvInt("NEWS_LOOKBACK_DAYS", 7),
			NewsPageSize:          getEnvInt("NEWS_PAGE_SIZE", 20),
			TechnicalLookbackDays: getEnvInt("TECHNICAL_LOOKBACK_DAYS", 730),
			HealthCacheTTLSeconds: getEnvInt("HEALTH_CACHE_TTL_SECONDS", 30),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		HTTP: HTTPConfig{
			Addr:               getEnvString("HTTP_ADDR", ":8080"),
			AccessSecret:       os.Getenv("ACCESS_SECRET"),
			CORSAllowedOrigins: getEnvString("CORS_ALLOWED_ORIGINS", "*"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.LLM.Backend {
	case "openai", "bedrock":
	default:
		return fmt.Errorf("LLM_BACKEND must be openai or bedrock, got %q", c.LLM.Backend)
	}

	if c.Pipeline.StageTimeoutSeconds <= 0 {
		return fmt.Errorf("PIPELINE_STAGE_TIMEOUT_SECONDS must be positive, got %d", c.Pipeline.StageTimeoutSeconds)
	}
	if c.Pipeline.NewsLookbackDays <= 0 {
		return fmt.Errorf("NEWS_LOOKBACK_DAYS must be positive, got %d", c.Pipeline.NewsLookbackDays)
	}
	if c.Pipeline.NewsPageSize <= 0 || c.Pipeline.NewsPageSize > 100 {
		return fmt.Errorf("NEWS_PAGE_SIZE must be in 1..100, got %d", c.Pipeline.NewsPageSize)
	}
	if c.Pipeline.TechnicalLookbackDays < 365 {
		return fmt.Errorf("TECHNICAL_LOOKBACK_DAYS must be at least 365, got %d", c.Pipeline.TechnicalLookbackDays)
	}

	return nil
}

// HasOpenAI returns true if OpenAI configuration is available
func (c *Config) HasOpenAI() bool {
	return c.OpenAI.APIKey != ""
}

// HasBedrock returns true if Bedrock configuration is available
func (c *Config) HasBedrock() bool {
	return c.Bedrock.Region != "" && c.Bedrock.ModelID != ""
}

// HasFMP returns true if Financial Modeling Prep configuration is available
func (c *Config) HasFMP() bool {
	return c.FMP.APIKey != ""
}

// HasNewsAPI returns true if NewsAPI configuration is available
func (c *Config) HasNewsAPI() bool {
	return c.NewsAPI.APIKey != ""
}

// HasAlpaca returns true if Alpaca market data configuration is available
func (c *Config) HasAlpaca() bool {
	return c.Alpaca.APIKey != "" && c.Alpaca.APISecret != ""
}

// HasDatabase returns true if database configuration is available
func (c *Config) HasDatabase() bool {
	return c.Database.URL != ""
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Backend: "openai",
		},
		OpenAI: OpenAIConfig{
			APIKey:    "",
			Model:     "gpt-4o",
			MaxTokens: 4096,
		},
		Pipeline: PipelineConfig{
			StageTimeoutSeconds:   60,
			NewsLookbackDays:      7,
			NewsPageSize:          20,
			TechnicalLookbackDays: 730,
			HealthCacheTTLSeconds: 30,
		},
		HTTP: HTTPConfig{
			Addr:               ":8080",
			AccessSecret:       "",
			CORSAllowedOrigins: "*",
		},
	}
}

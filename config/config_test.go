package config

import (
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"LLM_BACKEND", "OPENAI_MODEL", "PIPELINE_STAGE_TIMEOUT_SECONDS", "NEWS_PAGE_SIZE", "HTTP_ADDR", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LLM.Backend != "openai" {
		t.Errorf("expected default backend openai, got %q", cfg.LLM.Backend)
	}
	if cfg.OpenAI.Model != "gpt-4o" {
		t.Errorf("expected default model gpt-4o, got %q", cfg.OpenAI.Model)
	}
	if cfg.Pipeline.StageTimeoutSeconds != 60 {
		t.Errorf("expected default stage timeout 60, got %d", cfg.Pipeline.StageTimeoutSeconds)
	}
	if cfg.Pipeline.NewsPageSize != 20 {
		t.Errorf("expected default news page size 20, got %d", cfg.Pipeline.NewsPageSize)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("expected default addr :8080, got %q", cfg.HTTP.Addr)
	}
	if cfg.HTTP.CORSAllowedOrigins != "*" {
		t.Errorf("expected default CORS origin *, got %q", cfg.HTTP.CORSAllowedOrigins)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LLM_BACKEND", "bedrock")
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("BEDROCK_MODEL_ID", "anthropic.claude-3-sonnet")
	t.Setenv("NEWS_PAGE_SIZE", "50")
	t.Setenv("HTTP_ADDR", ":9999")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LLM.Backend != "bedrock" {
		t.Errorf("expected bedrock backend, got %q", cfg.LLM.Backend)
	}
	if !cfg.HasBedrock() {
		t.Error("expected HasBedrock true with region and model set")
	}
	if cfg.Pipeline.NewsPageSize != 50 {
		t.Errorf("expected news page size 50, got %d", cfg.Pipeline.NewsPageSize)
	}
	if cfg.HTTP.Addr != ":9999" {
		t.Errorf("expected addr :9999, got %q", cfg.HTTP.Addr)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"unknown backend", func(c *Config) { c.LLM.Backend = "gemini" }, true},
		{"zero stage timeout", func(c *Config) { c.Pipeline.StageTimeoutSeconds = 0 }, true},
		{"negative lookback", func(c *Config) { c.Pipeline.NewsLookbackDays = -1 }, true},
		{"page size over API limit", func(c *Config) { c.Pipeline.NewsPageSize = 101 }, true},
		{"technical lookback under a year", func(c *Config) { c.Pipeline.TechnicalLookbackDays = 200 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewTestConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHasHelpers(t *testing.T) {
	cfg := NewTestConfig()

	if cfg.HasOpenAI() || cfg.HasBedrock() || cfg.HasFMP() || cfg.HasNewsAPI() || cfg.HasAlpaca() || cfg.HasDatabase() {
		t.Error("expected all Has helpers false on an empty test config")
	}

	cfg.OpenAI.APIKey = "sk-test"
	cfg.FMP.APIKey = "fmp-test"
	cfg.NewsAPI.APIKey = "news-test"
	cfg.Alpaca.APIKey = "ak"
	cfg.Alpaca.APISecret = "as"
	cfg.Database.URL = "postgres://localhost/test"

	if !cfg.HasOpenAI() || !cfg.HasFMP() || !cfg.HasNewsAPI() || !cfg.HasAlpaca() || !cfg.HasDatabase() {
		t.Error("expected Has helpers true once credentials are set")
	}
}

package app

import (
	"context"
	"fmt"
	"time"

	"stock-researcher/agents"
	"stock-researcher/config"
	"stock-researcher/models"
	"stock-researcher/observability"
	"stock-researcher/pipeline"
	"stock-researcher/repository"
	"stock-researcher/services"
)

// App wires the services, collectors, and pipeline together. Unconfigured
// services degrade to nil collaborators; the pipeline reports their
// absence per run instead of failing at startup.
type App struct {
	cfg       *config.Config
	pipe      *pipeline.Pipeline
	repo      *repository.Repository
	llm       services.LLMService
	sentiment *agents.SentimentCollector
	hasNews   bool
}

// New builds the application from configuration. Only a broken LLM
// backend or an unreachable configured database is a startup error;
// every other missing credential is a degradation warning.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	llm, err := buildLLM(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if llm == nil {
		observability.Warn("no LLM backend configured; ticker resolution falls back to heuristics and reports are unavailable")
	}

	var fmp services.FMPServiceInterface
	if cfg.HasFMP() {
		fmp = services.NewFMPService(cfg.FMP.APIKey)
	} else {
		observability.Warn("FMP_API_KEY not set; financial data collection disabled")
	}

	var news services.NewsAPIServiceInterface
	if cfg.HasNewsAPI() {
		news = services.NewNewsAPIService(cfg.NewsAPI.APIKey)
	} else {
		observability.Warn("NEWS_API_KEY not set; sentiment collection disabled")
	}

	var alpaca services.AlpacaServiceInterface
	if cfg.HasAlpaca() {
		alpaca = services.NewAlpacaService(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret)
	} else {
		observability.Warn("Alpaca credentials not set; technical collection disabled")
	}

	var repo *repository.Repository
	if cfg.HasDatabase() {
		repo, err = repository.NewRepository(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			repo.Close()
			return nil, err
		}
	} else {
		observability.Info("DATABASE_URL not set; research runs will not be persisted")
	}

	var recorder pipeline.RunRecorder
	if repo != nil {
		recorder = repo
	}

	sentiment := agents.NewSentimentCollectorWithCacheTTL(llm, news, cfg.Pipeline.NewsLookbackDays, cfg.Pipeline.NewsPageSize,
		time.Duration(cfg.Pipeline.HealthCacheTTLSeconds)*time.Second)

	pipe := pipeline.New(
		pipeline.NewTickerResolver(llm),
		agents.NewFinancialCollector(fmp),
		sentiment,
		agents.NewTechnicalCollector(alpaca, cfg.Pipeline.TechnicalLookbackDays),
		agents.NewReportSynthesizer(llm),
		recorder,
		time.Duration(cfg.Pipeline.StageTimeoutSeconds)*time.Second,
	)

	return &App{
		cfg:       cfg,
		pipe:      pipe,
		repo:      repo,
		llm:       llm,
		sentiment: sentiment,
		hasNews:   news != nil,
	}, nil
}

func buildLLM(ctx context.Context, cfg *config.Config) (services.LLMService, error) {
	switch cfg.LLM.Backend {
	case "bedrock":
		if !cfg.HasBedrock() {
			observability.Warn("LLM_BACKEND=bedrock but AWS_REGION or BEDROCK_MODEL_ID is not set")
			return nil, nil
		}
		svc, err := services.NewBedrockService(ctx, cfg.Bedrock.Region, cfg.Bedrock.ModelID)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Bedrock: %w", err)
		}
		return svc, nil
	default: // openai
		if !cfg.HasOpenAI() {
			observability.Warn("LLM_BACKEND=openai but OPENAI_API_KEY is not set")
			return nil, nil
		}
		svc, err := services.NewOpenAIService(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI: %w", err)
		}
		return svc, nil
	}
}

// Research runs one query through the pipeline. It never returns an
// error; failures surface inside the result record.
func (a *App) Research(ctx context.Context, query string) *models.ResearchResult {
	return a.pipe.Run(ctx, query)
}

// Repo returns the repository, or nil when persistence is not configured.
func (a *App) Repo() *repository.Repository {
	return a.repo
}

// HasLLM reports whether an LLM backend is available.
func (a *App) HasLLM() bool {
	return a.llm != nil
}

// HasNews reports whether a news provider is configured.
func (a *App) HasNews() bool {
	return a.hasNews
}

// NewsAvailable probes the news provider's health. Results are cached by
// the sentiment collector, so frequent health checks stay cheap.
func (a *App) NewsAvailable(ctx context.Context) bool {
	return a.sentiment.IsAvailable(ctx)
}

// Config returns the application configuration.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Close releases application resources.
func (a *App) Close() {
	if a.repo != nil {
		a.repo.Close()
	}
}

package services

import (
	"context"
	"time"

	"stock-researcher/models"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

// LLMService defines the interface for language model completions.
// Both the OpenAI and Bedrock backends implement it.
type LLMService interface {
	InvokeWithPrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	InvokeWithTemperature(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error)
}

// FMPServiceInterface defines the interface for fundamental data operations
type FMPServiceInterface interface {
	GetFinancialData(ctx context.Context, ticker string) (*models.FinancialData, error)
}

// NewsAPIServiceInterface defines the interface for news data operations
type NewsAPIServiceInterface interface {
	GetNews(ctx context.Context, query string, lookbackDays, pageSize int) ([]models.NewsArticle, error)
}

// AlpacaServiceInterface defines the interface for market data operations
type AlpacaServiceInterface interface {
	GetBars(ctx context.Context, symbol string, start, end time.Time, timeframe marketdata.TimeFrame) ([]models.Bar, error)
	GetDailyBars(ctx context.Context, symbol string, days int) ([]models.Bar, error)
}

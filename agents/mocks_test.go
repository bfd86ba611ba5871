package agents

import (
	"context"
	"time"

	"stock-researcher/models"

	marketdata "github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

type mockLLMService struct {
	response    string
	err         error
	calls       int
	lastSystem  string
	lastUser    string
	temperature *float64
}

func (m *mockLLMService) InvokeWithPrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.calls++
	m.lastSystem = systemPrompt
	m.lastUser = userPrompt
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLMService) InvokeWithTemperature(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	m.temperature = &temperature
	return m.InvokeWithPrompt(ctx, systemPrompt, userPrompt)
}

type mockFMPService struct {
	data *models.FinancialData
	err  error
}

func (m *mockFMPService) GetFinancialData(ctx context.Context, ticker string) (*models.FinancialData, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.data, nil
}

type mockNewsAPIService struct {
	articles []models.NewsArticle
	err      error
	lastDays int
	lastSize int
}

func (m *mockNewsAPIService) GetNews(ctx context.Context, query string, lookbackDays, pageSize int) ([]models.NewsArticle, error) {
	m.lastDays = lookbackDays
	m.lastSize = pageSize
	if m.err != nil {
		return nil, m.err
	}
	return m.articles, nil
}

type mockAlpacaService struct {
	bars []models.Bar
	err  error
}

func (m *mockAlpacaService) GetBars(ctx context.Context, symbol string, start, end time.Time, timeframe marketdata.TimeFrame) ([]models.Bar, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.bars, nil
}

func (m *mockAlpacaService) GetDailyBars(ctx context.Context, symbol string, days int) ([]models.Bar, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.bars, nil
}

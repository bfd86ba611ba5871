package services

import (
	"context"
	"fmt"
	"time"

	"stock-researcher/models"
	"stock-researcher/observability"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
)

// alpacaDataClient defines the interface for Alpaca market data calls (for testing)
type alpacaDataClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// AlpacaService handles communication with Alpaca market data
type AlpacaService struct {
	dataClient alpacaDataClient
}

// NewAlpacaService creates a new AlpacaService instance
func NewAlpacaService(apiKey, apiSecret string) *AlpacaService {
	dataClient := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	})

	return &AlpacaService{
		dataClient: dataClient,
	}
}

// GetBars returns historical bars for a symbol
func (s *AlpacaService) GetBars(ctx context.Context, symbol string, start, end time.Time, timeframe marketdata.TimeFrame) ([]models.Bar, error) {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerAlpaca, "get_bars")
	timer := metrics.NewTimer()

	result, err := WithCircuitBreaker(ctx, BreakerAlpaca, func() ([]models.Bar, error) {
		bars, err := s.dataClient.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame: timeframe,
			Start:     start,
			End:       end,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get bars for %s: %w", symbol, err)
		}

		result := make([]models.Bar, 0, len(bars))
		for _, bar := range bars {
			result = append(result, models.Bar{
				Symbol:    symbol,
				Timestamp: bar.Timestamp,
				Open:      decimal.NewFromFloat(bar.Open),
				High:      decimal.NewFromFloat(bar.High),
				Low:       decimal.NewFromFloat(bar.Low),
				Close:     decimal.NewFromFloat(bar.Close),
				Volume:    int64(bar.Volume),
			})
		}

		return result, nil
	})

	timer.ObserveExternalAPI(BreakerAlpaca, "get_bars")
	if err != nil {
		metrics.RecordExternalAPIError(BreakerAlpaca, "get_bars", categorizeAPIError(err))
	}
	return result, err
}

// GetDailyBars returns daily bars for the last N calendar days
func (s *AlpacaService) GetDailyBars(ctx context.Context, symbol string, days int) ([]models.Bar, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -days)

	return s.GetBars(ctx, symbol, start, end, marketdata.OneDay)
}

// Compile-time interface verification
var _ AlpacaServiceInterface = (*AlpacaService)(nil)

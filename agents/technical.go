package agents

import (
	"context"
	"fmt"

	"stock-researcher/models"
	"stock-researcher/observability"
)

// minWeeklyBars is the smallest weekly series the indicators accept; the
// 50-period moving average needs at least this much history.
const minWeeklyBars = 50

// TechnicalCollector computes weekly momentum and trend indicators from
// daily price history. Purely numeric, no LLM involved.
type TechnicalCollector struct {
	alpaca       AlpacaServiceInterface
	lookbackDays int
}

// NewTechnicalCollector creates a new TechnicalCollector
func NewTechnicalCollector(alpaca AlpacaServiceInterface, lookbackDays int) *TechnicalCollector {
	return &TechnicalCollector{
		alpaca:       alpaca,
		lookbackDays: lookbackDays,
	}
}

// Collect fetches ~2 years of daily bars, resamples them to weekly
// candles, and computes the indicator set. Returns nil data with an error
// on failure; the pipeline degrades to a report without a technical
// section.
func (c *TechnicalCollector) Collect(ctx context.Context, ticker string) (*models.TechnicalData, error) {
	if c.alpaca == nil {
		return nil, fmt.Errorf("technical collector: market data provider not configured")
	}

	bars, err := c.alpaca.GetDailyBars(ctx, ticker, c.lookbackDays)
	if err != nil {
		observability.WithTicker(ticker).Warn("price history fetch failed", "error", err)
		return nil, fmt.Errorf("technical collector: %w", err)
	}

	weekly := ResampleWeekly(bars)
	if len(weekly) < minWeeklyBars {
		return nil, fmt.Errorf("technical collector: insufficient data (%d weekly bars, need %d)", len(weekly), minWeeklyBars)
	}

	closes := make([]float64, len(weekly))
	for i, candle := range weekly {
		closes[i] = candle.Close
	}

	sma20 := SMA(closes, 20)
	sma50 := SMA(closes, 50)
	macd, signal := MACD(closes)
	stochK, stochD := Stochastic(weekly, 14)

	return &models.TechnicalData{
		Trend:       ClassifyTrend(closes[len(closes)-1], sma20, sma50),
		RSI:         RSI(closes, 14),
		MACD:        macd,
		MACDSignal:  signal,
		StochK:      stochK,
		StochD:      stochD,
		StochSignal: ClassifyStochastic(stochK, stochD),
	}, nil
}

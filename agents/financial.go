package agents

import (
	"context"
	"fmt"

	"stock-researcher/models"
	"stock-researcher/observability"
)

// FinancialCollector fetches fundamental metrics for a ticker. It is the
// only collector whose failure is fatal to report synthesis, so it always
// returns a record carrying the success flag rather than a bare error.
type FinancialCollector struct {
	fmp FMPServiceInterface
}

// NewFinancialCollector creates a new FinancialCollector
func NewFinancialCollector(fmp FMPServiceInterface) *FinancialCollector {
	return &FinancialCollector{fmp: fmp}
}

// Collect fetches financial data for the ticker. On provider failure the
// returned record has Success=false and Error set; the second return value
// carries the same diagnostic for the pipeline's error log.
func (c *FinancialCollector) Collect(ctx context.Context, ticker string) (*models.FinancialData, error) {
	if c.fmp == nil {
		msg := "financial data provider not configured"
		return &models.FinancialData{Ticker: ticker, Success: false, Error: msg}, fmt.Errorf("financial collector: %s", msg)
	}

	data, err := c.fmp.GetFinancialData(ctx, ticker)
	if err != nil {
		observability.WithTicker(ticker).Error("financial data collection failed", "error", err)
		return &models.FinancialData{
			Ticker:  ticker,
			Success: false,
			Error:   err.Error(),
		}, fmt.Errorf("financial collector: %w", err)
	}

	return data, nil
}

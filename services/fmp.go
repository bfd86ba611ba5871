package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stock-researcher/models"
	"stock-researcher/observability"

	"github.com/shopspring/decimal"
)

// FMPService handles communication with Financial Modeling Prep API
type FMPService struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewFMPService creates a new FMPService instance
func NewFMPService(apiKey string) *FMPService {
	return &FMPService{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://financialmodelingprep.com/api/v3",
	}
}

// fmpProfileResponse represents a company profile from the FMP API
type fmpProfileResponse struct {
	Symbol            string  `json:"symbol"`
	CompanyName       string  `json:"companyName"`
	Price             float64 `json:"price"`
	MktCap            int64   `json:"mktCap"`
	Currency          string  `json:"currency"`
	Range             string  `json:"range"`
	Exchange          string  `json:"exchangeShortName"`
	Sector            string  `json:"sector"`
	Industry          string  `json:"industry"`
	IsActivelyTrading bool    `json:"isActivelyTrading"`
}

// fmpRatiosResponse represents trailing-twelve-month ratios from the FMP API
type fmpRatiosResponse struct {
	PERatio          float64 `json:"peRatioTTM"`
	PEGRatio         float64 `json:"pegRatioTTM"`
	PriceToBookRatio float64 `json:"priceToBookRatioTTM"`
	ReturnOnEquity   float64 `json:"returnOnEquityTTM"`
	ReturnOnAssets   float64 `json:"returnOnAssetsTTM"`
	NetProfitMargin  float64 `json:"netProfitMarginTTM"`
	OperatingMargin  float64 `json:"operatingProfitMarginTTM"`
	DebtEquityRatio  float64 `json:"debtEquityRatioTTM"`
	CurrentRatio     float64 `json:"currentRatioTTM"`
	DividendYield    float64 `json:"dividendYieldTTM"`
}

// fmpCashFlowResponse represents an annual cash flow statement from the FMP API
type fmpCashFlowResponse struct {
	Date         string  `json:"date"`
	FreeCashFlow float64 `json:"freeCashFlow"`
}

// fmpEnterpriseValuesResponse represents a yearly enterprise values record from the FMP API
type fmpEnterpriseValuesResponse struct {
	Date           string  `json:"date"`
	NumberOfShares float64 `json:"numberOfShares"`
}

// GetFinancialData fetches the full fundamental snapshot for a ticker.
// The company profile is mandatory; ratios, cash flow history and share
// counts are best-effort and leave their fields zero on failure.
func (s *FMPService) GetFinancialData(ctx context.Context, ticker string) (*models.FinancialData, error) {
	return WithCircuitBreaker(ctx, BreakerFMP, func() (*models.FinancialData, error) {
		profile, err := s.getProfile(ctx, ticker)
		if err != nil {
			return nil, err
		}

		data := &models.FinancialData{
			Ticker:       ticker,
			CompanyName:  profile.CompanyName,
			Currency:     profile.Currency,
			CurrentPrice: decimal.NewFromFloat(profile.Price),
			MarketCap:    decimal.NewFromInt(profile.MktCap),
		}
		if data.Currency == "" {
			data.Currency = "USD"
		}
		if low, high, ok := parse52WeekRange(profile.Range); ok {
			data.Week52Low = low
			data.Week52High = high
		}

		if ratios, err := s.getRatios(ctx, ticker); err != nil {
			observability.Warn("FMP ratios unavailable", "ticker", ticker, "error", err)
		} else {
			data.ForwardPE = ratios.PERatio
			data.PEGRatio = ratios.PEGRatio
			data.PriceToBook = ratios.PriceToBookRatio
			data.ReturnOnEquity = ratios.ReturnOnEquity
			data.ReturnOnAssets = ratios.ReturnOnAssets
			data.ProfitMargin = ratios.NetProfitMargin
			data.OperatingMargin = ratios.OperatingMargin
			data.DebtToEquity = ratios.DebtEquityRatio
			data.CurrentRatio = ratios.CurrentRatio
			data.DividendYield = ratios.DividendYield
		}

		if cashFlows, err := s.getCashFlows(ctx, ticker, 3); err != nil {
			observability.Warn("FMP cash flow history unavailable", "ticker", ticker, "error", err)
		} else if len(cashFlows) > 0 {
			// Statements come newest-first
			data.FreeCashFlow = decimal.NewFromFloat(cashFlows[0].FreeCashFlow)
			var sum float64
			for _, cf := range cashFlows {
				sum += cf.FreeCashFlow
			}
			data.AvgFCF3Y = decimal.NewFromFloat(sum / float64(len(cashFlows)))
			data.FCFTrend = classifyFCFTrend(cashFlows)
		}

		if shares, err := s.getEnterpriseValues(ctx, ticker, 4); err != nil {
			observability.Warn("FMP share count history unavailable", "ticker", ticker, "error", err)
		} else if len(shares) >= 2 {
			oldest := shares[len(shares)-1].NumberOfShares
			latest := shares[0].NumberOfShares
			if oldest > 0 {
				// Percent change, matching the model field and report rendering
				data.ShareDilution3Y = (latest - oldest) / oldest * 100
			}
		}

		data.Success = true
		return data, nil
	})
}

func (s *FMPService) getProfile(ctx context.Context, ticker string) (*fmpProfileResponse, error) {
	var profile *fmpProfileResponse

	err := WithRetry(ctx, DefaultRetryConfig, func() error {
		reqURL := fmt.Sprintf("%s/profile/%s?apikey=%s", s.baseURL, url.PathEscape(ticker), s.apiKey)

		var profileResp []fmpProfileResponse
		if err := s.getJSON(ctx, reqURL, &profileResp); err != nil {
			return fmt.Errorf("failed to fetch company profile: %w", err)
		}

		if len(profileResp) == 0 {
			return fmt.Errorf("no profile data for ticker %s", ticker)
		}

		profile = &profileResp[0]
		return nil
	})

	if err != nil {
		return nil, err
	}

	return profile, nil
}

func (s *FMPService) getRatios(ctx context.Context, ticker string) (*fmpRatiosResponse, error) {
	reqURL := fmt.Sprintf("%s/ratios-ttm/%s?apikey=%s", s.baseURL, url.PathEscape(ticker), s.apiKey)

	var ratiosResp []fmpRatiosResponse
	if err := s.getJSON(ctx, reqURL, &ratiosResp); err != nil {
		return nil, fmt.Errorf("failed to fetch ratios: %w", err)
	}

	if len(ratiosResp) == 0 {
		return nil, fmt.Errorf("no ratios data for ticker %s", ticker)
	}

	return &ratiosResp[0], nil
}

func (s *FMPService) getCashFlows(ctx context.Context, ticker string, limit int) ([]fmpCashFlowResponse, error) {
	reqURL := fmt.Sprintf("%s/cash-flow-statement/%s?period=annual&limit=%d&apikey=%s",
		s.baseURL, url.PathEscape(ticker), limit, s.apiKey)

	var cashFlowResp []fmpCashFlowResponse
	if err := s.getJSON(ctx, reqURL, &cashFlowResp); err != nil {
		return nil, fmt.Errorf("failed to fetch cash flow statements: %w", err)
	}

	return cashFlowResp, nil
}

func (s *FMPService) getEnterpriseValues(ctx context.Context, ticker string, limit int) ([]fmpEnterpriseValuesResponse, error) {
	reqURL := fmt.Sprintf("%s/enterprise-values/%s?period=annual&limit=%d&apikey=%s",
		s.baseURL, url.PathEscape(ticker), limit, s.apiKey)

	var evResp []fmpEnterpriseValuesResponse
	if err := s.getJSON(ctx, reqURL, &evResp); err != nil {
		return nil, fmt.Errorf("failed to fetch enterprise values: %w", err)
	}

	return evResp, nil
}

// getJSON performs a GET request and decodes the JSON response into out
func (s *FMPService) getJSON(ctx context.Context, reqURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("FMP API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// parse52WeekRange parses the FMP range string ("123.45-234.56") into low and high
func parse52WeekRange(r string) (low, high decimal.Decimal, ok bool) {
	parts := strings.SplitN(r, "-", 2)
	if len(parts) != 2 {
		return decimal.Zero, decimal.Zero, false
	}

	lowF, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return decimal.Zero, decimal.Zero, false
	}
	highF, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return decimal.Zero, decimal.Zero, false
	}

	return decimal.NewFromFloat(lowF), decimal.NewFromFloat(highF), true
}

// classifyFCFTrend labels the free cash flow direction over the statement
// history. Statements are ordered newest-first.
func classifyFCFTrend(cashFlows []fmpCashFlowResponse) string {
	if len(cashFlows) < 2 {
		return "insufficient data"
	}

	latest := cashFlows[0].FreeCashFlow
	oldest := cashFlows[len(cashFlows)-1].FreeCashFlow

	switch {
	case latest > oldest*1.05:
		return "growing"
	case latest < oldest*0.95:
		return "declining"
	default:
		return "stable"
	}
}

// Compile-time interface verification
var _ FMPServiceInterface = (*FMPService)(nil)

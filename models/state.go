package models

import (
	"github.com/shopspring/decimal"
)

// Verdict is the pipeline's final categorical recommendation.
type Verdict string

const (
	VerdictBuy         Verdict = "BUY"
	VerdictHold        Verdict = "HOLD"
	VerdictSell        Verdict = "SELL"
	VerdictUnavailable Verdict = "UNAVAILABLE"
	VerdictError       Verdict = "ERROR"
)

// FinancialData holds the metrics the financial collector fetches for a
// ticker. Success is false when the provider failed; Error then carries a
// human-readable message and the numeric fields are unset.
type FinancialData struct {
	Ticker          string          `json:"ticker"`
	CompanyName     string          `json:"company_name"`
	Currency        string          `json:"currency"`
	CurrentPrice    decimal.Decimal `json:"current_price"`
	MarketCap       decimal.Decimal `json:"market_cap"`
	ForwardPE       float64         `json:"forward_pe"`
	PEGRatio        float64         `json:"peg_ratio"`
	PriceToBook     float64         `json:"price_to_book"`
	ReturnOnEquity  float64         `json:"return_on_equity"`
	ReturnOnAssets  float64         `json:"return_on_assets"`
	ProfitMargin    float64         `json:"profit_margin"`
	OperatingMargin float64         `json:"operating_margin"`
	DebtToEquity    float64         `json:"debt_to_equity"`
	CurrentRatio    float64         `json:"current_ratio"`
	DividendYield   float64         `json:"dividend_yield"`
	FreeCashFlow    decimal.Decimal `json:"free_cash_flow"`
	AvgFCF3Y        decimal.Decimal `json:"avg_fcf_3y"`
	FCFTrend        string          `json:"fcf_trend"`
	ShareDilution3Y float64         `json:"share_dilution_3y"` // percent change in shares outstanding
	Week52High      decimal.Decimal `json:"week52_high"`
	Week52Low       decimal.Decimal `json:"week52_low"`
	Success         bool            `json:"success"`
	Error           string          `json:"error,omitempty"`
}

// SentimentData holds the sentiment collector's output. Score is always in
// [-1, 1]; a run with no articles carries a zero score and ArticleCount 0.
type SentimentData struct {
	Score        float64 `json:"score"`
	Summary      string  `json:"summary"`
	ArticleCount int     `json:"article_count"`
}

// TechnicalData holds the weekly indicator values computed by the technical
// collector. Empty (nil) on failure.
type TechnicalData struct {
	Trend       string  `json:"trend"`
	RSI         float64 `json:"rsi"`
	MACD        float64 `json:"macd"`
	MACDSignal  float64 `json:"macd_signal"`
	StochK      float64 `json:"stoch_k"`
	StochD      float64 `json:"stoch_d"`
	StochSignal string  `json:"stoch_signal"`
}

// ResearchState is the shared state carried through every pipeline stage.
// One instance per run, created fresh by the controller, never shared
// between runs. Stages write through the setter methods so each stage's
// contract stays visible at the call site.
type ResearchState struct {
	UserQuery   string `json:"user_query"`
	Ticker      string `json:"ticker"`
	CompanyName string `json:"company_name"`

	Financial *FinancialData `json:"financial_data,omitempty"`
	Sentiment *SentimentData `json:"sentiment_data,omitempty"`
	Technical *TechnicalData `json:"technical_data,omitempty"`

	FinalReport    string  `json:"final_report,omitempty"`
	Recommendation Verdict `json:"recommendation,omitempty"`

	Errors []string `json:"errors"`
}

// TickerUnknown is the sentinel for a query with no identifiable ticker.
const TickerUnknown = "UNKNOWN"

// NewResearchState creates the state for a single run.
func NewResearchState(query string) *ResearchState {
	return &ResearchState{
		UserQuery: query,
		Errors:    make([]string, 0),
	}
}

// AddError appends a diagnostic message. The list is append-only and never
// cleared mid-run.
func (s *ResearchState) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}

// SetTicker records the resolved ticker. Called exactly once, before any
// collector reads it.
func (s *ResearchState) SetTicker(ticker string) {
	s.Ticker = ticker
	if s.CompanyName == "" {
		s.CompanyName = ticker
	}
}

// SentimentScore returns the sentiment score, or zero when the collector
// never ran.
func (s *ResearchState) SentimentScore() float64 {
	if s.Sentiment == nil {
		return 0
	}
	return s.Sentiment.Score
}

// Result extracts the fields the caller keeps after a finished run.
func (s *ResearchState) Result() *ResearchResult {
	return &ResearchResult{
		Ticker:         s.Ticker,
		CompanyName:    s.CompanyName,
		Recommendation: s.Recommendation,
		SentimentScore: s.SentimentScore(),
		Report:         s.FinalReport,
		Errors:         s.Errors,
	}
}

// ResearchResult is the record returned at the process entry point.
type ResearchResult struct {
	Ticker         string   `json:"ticker"`
	CompanyName    string   `json:"company_name"`
	Recommendation Verdict  `json:"recommendation"`
	SentimentScore float64  `json:"sentiment_score"`
	Report         string   `json:"report,omitempty"`
	Errors         []string `json:"errors"`
}

package pipeline

import (
	"context"
	"regexp"
	"strings"

	"stock-researcher/models"
	"stock-researcher/observability"
	"stock-researcher/services"
)

const resolverSystemPrompt = `You extract stock ticker symbols from user queries.

Reply with ONLY the ticker symbol: uppercase, 2 to 5 letters, nothing else.
If the query does not identify a publicly traded company, reply with exactly
UNKNOWN. Never add explanations or punctuation.`

// tickerPattern validates the LLM's raw answer. Anything that does not
// match is treated as a failure of the LLM strategy, including the
// literal UNKNOWN reply, which the deterministic fallback re-derives.
var tickerPattern = regexp.MustCompile(`^[A-Z]{2,5}$`)

// uppercaseToken finds candidate ticker tokens in the raw query.
var uppercaseToken = regexp.MustCompile(`\b[A-Z]{2,5}\b`)

// resolverStopwords are short uppercase English words that look like
// tickers but almost never are one in a user query.
var resolverStopwords = map[string]struct{}{
	"IN": {}, "AN": {}, "TO": {}, "IT": {}, "IS": {},
	"OR": {}, "ON": {}, "AT": {}, "BY": {}, "OF": {},
}

// knownCompanies maps well-known company names to tickers for the
// deterministic fallback. Ordered so resolution is stable when a query
// mentions more than one name.
var knownCompanies = []struct {
	name   string
	ticker string
}{
	{"apple", "AAPL"},
	{"tesla", "TSLA"},
	{"microsoft", "MSFT"},
	{"google", "GOOGL"},
	{"amazon", "AMZN"},
	{"meta", "META"},
	{"nvidia", "NVDA"},
	{"netflix", "NFLX"},
}

// TickerResolver maps a free-text query to a canonical ticker symbol or
// models.TickerUnknown. The LLM is the primary strategy; a deterministic
// scan of the query is the fallback, so resolution works without a model.
type TickerResolver struct {
	llm services.LLMService
}

// NewTickerResolver creates a new TickerResolver. A nil llm disables the
// primary strategy and resolution runs on the fallback alone.
func NewTickerResolver(llm services.LLMService) *TickerResolver {
	return &TickerResolver{llm: llm}
}

// Resolve returns the ticker for the query, or models.TickerUnknown.
func (r *TickerResolver) Resolve(ctx context.Context, query string) string {
	if r.llm != nil {
		// Temperature 0 keeps the extraction as deterministic as the
		// model allows.
		reply, err := r.llm.InvokeWithTemperature(ctx, resolverSystemPrompt, query, 0)
		if err == nil {
			candidate := strings.TrimSpace(reply)
			if tickerPattern.MatchString(candidate) {
				return candidate
			}
			observability.Debug("LLM ticker reply rejected", "reply", candidate)
		} else {
			observability.Warn("LLM ticker resolution failed", "error", err)
		}
	}

	return fallbackResolve(query)
}

// fallbackResolve is the deterministic strategy: first an uppercase token
// scan, then a known-company name match.
func fallbackResolve(query string) string {
	for _, token := range uppercaseToken.FindAllString(query, -1) {
		if _, stop := resolverStopwords[token]; !stop {
			return token
		}
	}

	lower := strings.ToLower(query)
	for _, company := range knownCompanies {
		if strings.Contains(lower, company.name) {
			return company.ticker
		}
	}

	return models.TickerUnknown
}

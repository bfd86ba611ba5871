package agents

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"stock-researcher/models"
	"stock-researcher/observability"

	"github.com/shopspring/decimal"
)

const reportSystemPrompt = `You are a skeptical, conservative equity analyst writing for a retail
investor. You distrust narratives and trust cash. Weigh free cash flow
heavily: a negative free cash flow or a negative 3-year FCF trend is a
serious red flag. Weigh share dilution heavily: meaningful growth in
shares outstanding erodes existing holders and must be justified.

Write a markdown research report with exactly these seven sections:

## Company Overview
## Valuation
## Cash Flow & Dilution
## Profitability
## Financial Health
## Sentiment & Technicals
## Conclusion

Base every claim on the data provided; where data is marked N/A, say so
rather than guessing. End the report with a single line in exactly this
format, after the Conclusion section:

VERDICT: BUY or VERDICT: HOLD or VERDICT: SELL`

// verdictPattern matches the verdict marker the prompt asks for.
var verdictPattern = regexp.MustCompile(`(?i)VERDICT:\s*(BUY|SELL|HOLD)`)

// mathWrappedNumber matches a bare number the model wrapped in TeX-style
// dollar delimiters, e.g. $-50$ or $3.14$.
var mathWrappedNumber = regexp.MustCompile(`\$(-?\d+(?:\.\d+)?)\$`)

// verdictScanWindow is how far back from the end of the report the
// fallback verdict scan looks.
const verdictScanWindow = 500

// ReportSynthesizer turns the collected data into a narrative report and
// a discrete verdict via a single LLM call.
type ReportSynthesizer struct {
	llm LLMService
}

// NewReportSynthesizer creates a new ReportSynthesizer
func NewReportSynthesizer(llm LLMService) *ReportSynthesizer {
	return &ReportSynthesizer{llm: llm}
}

// Synthesize produces the final report and verdict from the accumulated
// state. It never fails the run: missing financial data yields
// UNAVAILABLE and an LLM failure yields ERROR with a stub report. A
// non-nil error is a diagnostic for the run's error log.
func (s *ReportSynthesizer) Synthesize(ctx context.Context, state *models.ResearchState) (string, models.Verdict, error) {
	// Without usable financial data there is nothing to analyze. The LLM
	// is not consulted.
	if state.Financial == nil || !state.Financial.Success {
		return unavailableReport(state), models.VerdictUnavailable, nil
	}

	if s.llm == nil {
		return errorReport(state.Ticker), models.VerdictError,
			fmt.Errorf("report synthesizer: LLM not configured")
	}

	userPrompt := buildReportPrompt(state)
	response, err := s.llm.InvokeWithPrompt(ctx, reportSystemPrompt, userPrompt)
	if err != nil {
		observability.WithTicker(state.Ticker).Error("report synthesis failed", "error", err)
		return errorReport(state.Ticker), models.VerdictError,
			fmt.Errorf("report synthesizer: %w", err)
	}

	report := sanitizeReport(response)
	return report, extractVerdict(report), nil
}

func unavailableReport(state *models.ResearchState) string {
	reason := "financial data could not be retrieved"
	if state.Financial != nil && state.Financial.Error != "" {
		reason = state.Financial.Error
	}
	return fmt.Sprintf("# %s\n\nNo report could be generated: %s.\n", state.Ticker, reason)
}

func errorReport(ticker string) string {
	return fmt.Sprintf("# %s\n\nReport generation failed. See errors for details.\n", ticker)
}

// buildReportPrompt renders every collected metric into labelled sections.
// Currency values carry their currency code and thousands separators;
// missing values render as the literal "N/A".
func buildReportPrompt(state *models.ResearchState) string {
	f := state.Financial

	var sb strings.Builder
	fmt.Fprintf(&sb, "Research data for %s (%s):\n\n", f.CompanyName, state.Ticker)

	sb.WriteString("VALUATION\n")
	fmt.Fprintf(&sb, "Current Price: %s\n", formatMoney(f.CurrentPrice, f.Currency))
	fmt.Fprintf(&sb, "Market Cap: %s\n", formatMoney(f.MarketCap, f.Currency))
	fmt.Fprintf(&sb, "Forward P/E: %s\n", formatRatio(f.ForwardPE))
	fmt.Fprintf(&sb, "PEG Ratio: %s\n", formatRatio(f.PEGRatio))
	fmt.Fprintf(&sb, "Price/Book: %s\n\n", formatRatio(f.PriceToBook))

	sb.WriteString("CASH FLOW & DILUTION\n")
	fmt.Fprintf(&sb, "Free Cash Flow (latest): %s\n", formatMoney(f.FreeCashFlow, f.Currency))
	fmt.Fprintf(&sb, "Free Cash Flow (3y avg): %s\n", formatMoney(f.AvgFCF3Y, f.Currency))
	fmt.Fprintf(&sb, "FCF Trend: %s\n", formatText(f.FCFTrend))
	fmt.Fprintf(&sb, "Share Dilution (3y): %s\n\n", formatPercent(f.ShareDilution3Y))

	sb.WriteString("PROFITABILITY\n")
	fmt.Fprintf(&sb, "Profit Margin: %s\n", formatPercent(f.ProfitMargin*100))
	fmt.Fprintf(&sb, "Operating Margin: %s\n", formatPercent(f.OperatingMargin*100))
	fmt.Fprintf(&sb, "Return on Equity: %s\n", formatPercent(f.ReturnOnEquity*100))
	fmt.Fprintf(&sb, "Return on Assets: %s\n\n", formatPercent(f.ReturnOnAssets*100))

	sb.WriteString("FINANCIAL HEALTH\n")
	fmt.Fprintf(&sb, "Debt/Equity: %s\n", formatRatio(f.DebtToEquity))
	fmt.Fprintf(&sb, "Current Ratio: %s\n", formatRatio(f.CurrentRatio))
	fmt.Fprintf(&sb, "Dividend Yield: %s\n\n", formatPercent(f.DividendYield*100))

	sb.WriteString("MARKET DATA\n")
	fmt.Fprintf(&sb, "52-Week High: %s\n", formatMoney(f.Week52High, f.Currency))
	fmt.Fprintf(&sb, "52-Week Low: %s\n\n", formatMoney(f.Week52Low, f.Currency))

	sb.WriteString("SENTIMENT\n")
	if state.Sentiment != nil {
		fmt.Fprintf(&sb, "News Sentiment Score: %.2f (range -1.0 to 1.0, %d articles)\n", state.Sentiment.Score, state.Sentiment.ArticleCount)
		fmt.Fprintf(&sb, "Summary: %s\n\n", state.Sentiment.Summary)
	} else {
		sb.WriteString("News Sentiment: N/A\n\n")
	}

	sb.WriteString("TECHNICAL (weekly)\n")
	if t := state.Technical; t != nil {
		fmt.Fprintf(&sb, "Trend: %s\n", t.Trend)
		fmt.Fprintf(&sb, "RSI (14w): %.2f\n", t.RSI)
		fmt.Fprintf(&sb, "MACD: %.4f (signal %.4f)\n", t.MACD, t.MACDSignal)
		fmt.Fprintf(&sb, "Stochastic: %%K %.2f / %%D %.2f (%s)\n", t.StochK, t.StochD, t.StochSignal)
	} else {
		sb.WriteString("Technical Indicators: N/A\n")
	}

	return sb.String()
}

// formatMoney renders a currency value with thousands separators and its
// currency code, or "N/A" when unset.
func formatMoney(v decimal.Decimal, currency string) string {
	if v.IsZero() {
		return "N/A"
	}
	if currency == "" {
		currency = "USD"
	}
	return fmt.Sprintf("%s %s", currency, addThousandsSeparators(v.StringFixed(2)))
}

func formatRatio(v float64) string {
	if v == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", v)
}

func formatPercent(v float64) string {
	if v == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", v)
}

func formatText(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

// addThousandsSeparators inserts commas into the integer part of a plain
// decimal string like "-1234567.89".
func addThousandsSeparators(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}

	intPart := s
	fracPart := ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart = s[:dot]
		fracPart = s[dot:]
	}

	if len(intPart) <= 3 {
		return sign + intPart + fracPart
	}

	var sb strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		sb.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(intPart[i : i+3])
	}
	return sign + sb.String() + fracPart
}

// sanitizeReport neutralizes dollar signs so the downstream markdown
// renderer does not treat them as math delimiters. Order matters:
// un-escape first, then unwrap math-delimited numbers, then substitute
// the full-width sign for whatever remains.
func sanitizeReport(text string) string {
	text = strings.ReplaceAll(text, `\$`, "$")
	text = mathWrappedNumber.ReplaceAllString(text, "$1")
	return strings.ReplaceAll(text, "$", "＄")
}

// extractVerdict pulls the verdict out of the report text. Primary: the
// VERDICT: marker anywhere in the text. Fallback: scan the last 500
// characters for SELL, then BUY. Default: HOLD. The model does not always
// obey the requested format, so a verdict must always come out of here.
func extractVerdict(report string) models.Verdict {
	if m := verdictPattern.FindStringSubmatch(report); m != nil {
		return models.Verdict(strings.ToUpper(m[1]))
	}

	tail := report
	if len(tail) > verdictScanWindow {
		tail = tail[len(tail)-verdictScanWindow:]
	}
	tail = strings.ToUpper(tail)

	if strings.Contains(tail, "SELL") {
		return models.VerdictSell
	}
	if strings.Contains(tail, "BUY") {
		return models.VerdictBuy
	}
	return models.VerdictHold
}

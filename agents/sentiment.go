package agents

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"stock-researcher/models"
	"stock-researcher/observability"
)

const sentimentSystemPrompt = `You are a financial news analyst. You will be given recent news
articles about a company. Assess the overall market sentiment they convey.

Respond in EXACTLY this two-line format and nothing else:
SCORE: <number between -1.0 and 1.0, where -1.0 is very negative and 1.0 is very positive>
SUMMARY: <2-3 sentence summary of the overall sentiment and the key drivers>`

// maxArticlesForPrompt caps how many articles are included in the LLM prompt.
const maxArticlesForPrompt = 10

// defaultSentimentSummary is used when the model's reply has no SUMMARY line.
const defaultSentimentSummary = "No summary available."

// SentimentCollector fetches recent news and asks the LLM for a sentiment
// score. It always returns a usable record; failures degrade to a zero
// score with the diagnostic passed back for the pipeline's error log.
type SentimentCollector struct {
	llm          LLMService
	newsAPI      NewsAPIServiceInterface
	lookbackDays int
	pageSize     int
	healthCache  *HealthCache
}

// NewSentimentCollector creates a new SentimentCollector
func NewSentimentCollector(llm LLMService, newsAPI NewsAPIServiceInterface, lookbackDays, pageSize int) *SentimentCollector {
	return &SentimentCollector{
		llm:          llm,
		newsAPI:      newsAPI,
		lookbackDays: lookbackDays,
		pageSize:     pageSize,
		healthCache:  NewHealthCache(DefaultHealthCacheTTL),
	}
}

// NewSentimentCollectorWithCacheTTL creates a SentimentCollector with a custom health cache TTL
func NewSentimentCollectorWithCacheTTL(llm LLMService, newsAPI NewsAPIServiceInterface, lookbackDays, pageSize int, cacheTTL time.Duration) *SentimentCollector {
	c := NewSentimentCollector(llm, newsAPI, lookbackDays, pageSize)
	c.healthCache = NewHealthCache(cacheTTL)
	return c
}

// Collect fetches news for the ticker and scores its sentiment. The record
// is always non-nil; a non-nil error is a diagnostic for the run's error
// log, never a reason to abort.
func (c *SentimentCollector) Collect(ctx context.Context, ticker string) (*models.SentimentData, error) {
	if c.newsAPI == nil || c.llm == nil {
		return &models.SentimentData{
			Score:   0.0,
			Summary: "Sentiment analysis unavailable: service not configured.",
		}, fmt.Errorf("sentiment collector: service not configured")
	}

	articles, err := c.newsAPI.GetNews(ctx, ticker, c.lookbackDays, c.pageSize)
	if err != nil {
		observability.WithTicker(ticker).Warn("news fetch failed", "error", err)
		return &models.SentimentData{
			Score:   0.0,
			Summary: "Sentiment analysis unavailable: news fetch failed.",
		}, fmt.Errorf("sentiment collector: %w", err)
	}

	// No articles is a distinct outcome, not a failure. The LLM is not
	// consulted about an empty list.
	if len(articles) == 0 {
		return &models.SentimentData{
			Score:        0.0,
			Summary:      fmt.Sprintf("No recent news found for %s.", ticker),
			ArticleCount: 0,
		}, nil
	}

	response, err := c.llm.InvokeWithPrompt(ctx, sentimentSystemPrompt, buildSentimentPrompt(ticker, articles))
	if err != nil {
		observability.WithTicker(ticker).Warn("sentiment analysis failed", "error", err)
		return &models.SentimentData{
			Score:        0.0,
			Summary:      "Sentiment analysis unavailable.",
			ArticleCount: len(articles),
		}, fmt.Errorf("sentiment collector: %w", err)
	}

	score, summary := parseSentimentResponse(response)
	return &models.SentimentData{
		Score:        score,
		Summary:      summary,
		ArticleCount: len(articles),
	}, nil
}

// buildSentimentPrompt concatenates the top articles' titles and
// descriptions into the user prompt.
func buildSentimentPrompt(ticker string, articles []models.NewsArticle) string {
	limit := len(articles)
	if limit > maxArticlesForPrompt {
		limit = maxArticlesForPrompt
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Recent news about %s:\n\n", ticker))
	for i := 0; i < limit; i++ {
		article := articles[i]
		sb.WriteString(fmt.Sprintf("%d. %s", i+1, article.Title))
		if article.Description != "" {
			sb.WriteString(fmt.Sprintf(" - %s", article.Description))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// parseSentimentResponse locates the SCORE: and SUMMARY: lines in the
// model's reply. A missing or non-numeric score degrades to 0.0; a missing
// summary degrades to a placeholder. The score is clamped to [-1, 1].
func parseSentimentResponse(response string) (float64, string) {
	score := 0.0
	summary := defaultSentimentSummary

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "SCORE:"); ok {
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(rest), 64); err == nil {
				score = clampScore(parsed)
			}
		} else if rest, ok := strings.CutPrefix(line, "SUMMARY:"); ok {
			if text := strings.TrimSpace(rest); text != "" {
				summary = text
			}
		}
	}

	return score, summary
}

func clampScore(score float64) float64 {
	if score > 1.0 {
		return 1.0
	}
	if score < -1.0 {
		return -1.0
	}
	return score
}

// IsAvailable checks if the collector's news dependency is healthy.
// Results are cached to reduce API calls during frequent availability checks.
func (c *SentimentCollector) IsAvailable(ctx context.Context) bool {
	if c.newsAPI == nil {
		return false
	}
	if available, valid := c.healthCache.Get(); valid {
		return available
	}

	_, err := c.newsAPI.GetNews(ctx, "AAPL", 1, 1)
	available := err == nil
	c.healthCache.Set(available)
	return available
}

// InvalidateHealthCache clears the health cache, forcing the next check to make a live call.
func (c *SentimentCollector) InvalidateHealthCache() {
	c.healthCache.Invalidate()
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"stock-researcher/models"
	"stock-researcher/observability"
)

// NewsAPIService handles communication with NewsAPI.org
type NewsAPIService struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewNewsAPIService creates a new NewsAPIService instance
func NewNewsAPIService(apiKey string) *NewsAPIService {
	return &NewsAPIService{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://newsapi.org/v2",
	}
}

// NewsAPIResponse represents the response from NewsAPI
type NewsAPIResponse struct {
	Status       string `json:"status"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"source"`
		Author      string `json:"author"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// GetNews returns recent news articles for a query (typically a company name),
// sorted by relevancy, restricted to the given lookback window.
func (s *NewsAPIService) GetNews(ctx context.Context, query string, lookbackDays, pageSize int) ([]models.NewsArticle, error) {
	if lookbackDays <= 0 {
		lookbackDays = 7
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	return WithCircuitBreaker(ctx, BreakerNewsAPI, func() ([]models.NewsArticle, error) {
		var articles []models.NewsArticle

		err := WithRetry(ctx, DefaultRetryConfig, func() error {
			from := time.Now().AddDate(0, 0, -lookbackDays).Format("2006-01-02")

			params := url.Values{}
			params.Set("q", query)
			params.Set("from", from)
			params.Set("language", "en")
			params.Set("sortBy", "relevancy")
			params.Set("pageSize", strconv.Itoa(pageSize))

			req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+"/everything?"+params.Encode(), nil)
			if err != nil {
				return fmt.Errorf("failed to create request: %w", err)
			}
			req.Header.Set("X-Api-Key", s.apiKey)

			resp, err := s.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("failed to fetch news: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("NewsAPI returned status %d", resp.StatusCode)
			}

			var newsResp NewsAPIResponse
			if err := json.NewDecoder(resp.Body).Decode(&newsResp); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}

			if newsResp.Status != "ok" {
				return fmt.Errorf("NewsAPI returned status %q", newsResp.Status)
			}

			articles = make([]models.NewsArticle, 0, len(newsResp.Articles))
			for _, item := range newsResp.Articles {
				publishedAt, err := time.Parse(time.RFC3339, item.PublishedAt)
				if err != nil {
					observability.Warn("failed to parse article timestamp, using current time",
						"timestamp", item.PublishedAt, "error", err)
					publishedAt = time.Now()
				}

				articles = append(articles, models.NewsArticle{
					Title:       item.Title,
					Description: item.Description,
					URL:         item.URL,
					Source:      item.Source.Name,
					PublishedAt: publishedAt,
				})
			}

			return nil
		})

		if err != nil {
			return nil, err
		}

		return articles, nil
	})
}

// Compile-time interface verification
var _ NewsAPIServiceInterface = (*NewsAPIService)(nil)

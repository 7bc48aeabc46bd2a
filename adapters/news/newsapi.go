package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/marsha-ai/server/domain/repositories"
)

const (
	defaultAPIBaseURL = "https://newsapi.org/v2"
	defaultCountry    = "us"
	defaultPageSize   = 5
	requestTimeout    = 10 * time.Second
)

// NewsAPIConfig holds configuration for the NewsAPI client.
// Required fields:
// - APIKey: newsapi.org API key
// Optional fields with defaults:
// - APIBaseURL: API base URL (default: "https://newsapi.org/v2")
// - Country: country code for headlines (default: "us")
// - PageSize: articles per request (default: 5)
type NewsAPIConfig struct {
	APIKey     string
	APIBaseURL string
	Country    string
	PageSize   int
}

// NewsAPIClient implements NewsProvider against newsapi.org.
type NewsAPIClient struct {
	apiKey     string
	apiBaseURL string
	country    string
	pageSize   int
	httpClient *http.Client
	logger     *zap.Logger
}

var _ repositories.NewsProvider = (*NewsAPIClient)(nil)

type newsAPIResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// NewNewsAPIClient creates a NewsAPI client.
func NewNewsAPIClient(config NewsAPIConfig, logger *zap.Logger) (*NewsAPIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("news API key is required")
	}
	if config.APIBaseURL == "" {
		config.APIBaseURL = defaultAPIBaseURL
	}
	if config.Country == "" {
		config.Country = defaultCountry
	}
	if config.PageSize == 0 {
		config.PageSize = defaultPageSize
	}

	return &NewsAPIClient{
		apiKey:     config.APIKey,
		apiBaseURL: config.APIBaseURL,
		country:    config.Country,
		pageSize:   config.PageSize,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}, nil
}

// TopHeadlines fetches current headlines, optionally limited to a category.
func (c *NewsAPIClient) TopHeadlines(ctx context.Context, category string) ([]repositories.Article, error) {
	params := url.Values{}
	params.Set("country", c.country)
	params.Set("pageSize", fmt.Sprintf("%d", c.pageSize))
	if category != "" {
		params.Set("category", category)
	}
	return c.get(ctx, "/top-headlines", params)
}

// Search fetches articles matching the query, most relevant first.
func (c *NewsAPIClient) Search(ctx context.Context, query string) ([]repositories.Article, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("sortBy", "relevancy")
	params.Set("language", "en")
	params.Set("pageSize", fmt.Sprintf("%d", c.pageSize))
	return c.get(ctx, "/everything", params)
}

func (c *NewsAPIClient) get(ctx context.Context, path string, params url.Values) ([]repositories.Article, error) {
	params.Set("apiKey", c.apiKey)
	requestURL := fmt.Sprintf("%s%s?%s", c.apiBaseURL, path, params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news: %w", err)
	}
	defer resp.Body.Close()

	var body newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode news response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		return nil, fmt.Errorf("news API error (%d): %s", resp.StatusCode, body.Message)
	}

	articles := make([]repositories.Article, 0, len(body.Articles))
	for _, a := range body.Articles {
		articles = append(articles, repositories.Article{
			Title:       a.Title,
			Description: a.Description,
			Source:      a.Source.Name,
		})
	}

	c.logger.Debug("Fetched news articles",
		zap.String("path", path),
		zap.Int("count", len(articles)))

	return articles, nil
}

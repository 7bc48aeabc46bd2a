package repositories

import "context"

// Article is a ranked news article summary.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// NewsProvider abstracts a news lookup service
type NewsProvider interface {
	// TopHeadlines returns current headlines, optionally restricted to a
	// category (empty string means all categories).
	TopHeadlines(ctx context.Context, category string) ([]Article, error)
	// Search returns articles matching the query, most relevant first.
	Search(ctx context.Context, query string) ([]Article, error)
}

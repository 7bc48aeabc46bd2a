package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/marsha-ai/server/domain/repositories"
)

const maxContextArticles = 3

var newsKeywords = []string{
	"news", "latest", "recent", "current", "today", "happening",
	"update", "events", "headlines", "breaking", "what's new",
	"tell me about", "what happened", "any news",
}

// newsCategories is checked in priority order against the query.
var newsCategories = []struct {
	name     string
	keywords []string
}{
	{"technology", []string{"technology", "tech"}},
	{"sports", []string{"sports"}},
	{"health", []string{"health"}},
	{"business", []string{"business"}},
	{"science", []string{"science"}},
}

var searchStopWords = map[string]struct{}{
	"what": {}, "is": {}, "are": {}, "the": {}, "about": {}, "tell": {},
	"me": {}, "any": {}, "latest": {}, "recent": {}, "news": {},
}

// NewsAugmenter injects current news context into queries that ask for it.
type NewsAugmenter struct {
	news   repositories.NewsProvider
	logger *zap.Logger
}

// NewNewsAugmenter creates an augmenter backed by the given provider.
func NewNewsAugmenter(news repositories.NewsProvider, logger *zap.Logger) *NewsAugmenter {
	return &NewsAugmenter{news: news, logger: logger}
}

// ShouldAugment reports whether the query asks for news or current events.
func (a *NewsAugmenter) ShouldAugment(query string) bool {
	return containsAny(strings.ToLower(query), newsKeywords)
}

// Augment fetches relevant articles and prepends them as context to the
// query. Any lookup failure degrades to the original query; no error reaches
// the caller.
func (a *NewsAugmenter) Augment(ctx context.Context, query string) string {
	articles := a.fetch(ctx, query)
	if len(articles) == 0 {
		a.logger.Warn("No news articles available, continuing without context")
		return query
	}

	a.logger.Info("Enhanced query with news articles", zap.Int("articles", len(articles)))
	return fmt.Sprintf(
		"User asked: %s\n\nHere's some current news information that might be relevant:\n%s\nPlease respond to the user's question using this news information if relevant, but stay in character and make it sound exciting and fun!",
		query, formatArticles(articles))
}

func (a *NewsAugmenter) fetch(ctx context.Context, query string) []repositories.Article {
	lower := strings.ToLower(query)

	for _, category := range newsCategories {
		if containsAny(lower, category.keywords) {
			articles, err := a.news.TopHeadlines(ctx, category.name)
			if err != nil {
				a.logger.Warn("Headline lookup failed",
					zap.String("category", category.name),
					zap.Error(err))
				return nil
			}
			return articles
		}
	}

	var articles []repositories.Article
	var err error
	if terms := ExtractSearchTerms(query); terms != "" {
		articles, err = a.news.Search(ctx, terms)
	} else {
		articles, err = a.news.TopHeadlines(ctx, "")
	}
	if err != nil {
		a.logger.Warn("News lookup failed", zap.Error(err))
		return nil
	}
	return articles
}

// ExtractSearchTerms pulls up to three meaningful words out of the query,
// lowercased, stopword-filtered and longer than two characters, preserving
// their original order.
func ExtractSearchTerms(query string) string {
	var terms []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if _, stop := searchStopWords[word]; stop || len(word) <= 2 {
			continue
		}
		terms = append(terms, word)
		if len(terms) == 3 {
			break
		}
	}
	return strings.Join(terms, " ")
}

func formatArticles(articles []repositories.Article) string {
	if len(articles) > maxContextArticles {
		articles = articles[:maxContextArticles]
	}

	var b strings.Builder
	b.WriteString("Here are some recent news updates:\n\n")
	for i, article := range articles {
		title := article.Title
		if title == "" {
			title = "No title"
		}
		description := article.Description
		if description == "" {
			description = "No description available"
		}
		source := article.Source
		if source == "" {
			source = "Unknown source"
		}
		fmt.Fprintf(&b, "%d. **%s**\n   Source: %s\n   Summary: %s\n\n", i+1, title, source, description)
	}
	return b.String()
}

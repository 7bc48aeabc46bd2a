package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/marsha-ai/server/domain/repositories"
)

// fakeNewsProvider records requests and replays canned results.
type fakeNewsProvider struct {
	headlines    []repositories.Article
	searched     []repositories.Article
	err          error
	lastCategory string
	lastQuery    string
	headlineHits int
	searchHits   int
}

func (f *fakeNewsProvider) TopHeadlines(ctx context.Context, category string) ([]repositories.Article, error) {
	f.headlineHits++
	f.lastCategory = category
	return f.headlines, f.err
}

func (f *fakeNewsProvider) Search(ctx context.Context, query string) ([]repositories.Article, error) {
	f.searchHits++
	f.lastQuery = query
	return f.searched, f.err
}

func TestNewsAugmenter_ShouldAugment(t *testing.T) {
	augmenter := NewNewsAugmenter(&fakeNewsProvider{}, zap.NewNop())

	tests := []struct {
		query string
		want  bool
	}{
		{"what's the latest tech news", true},
		{"any news about space?", true},
		{"what happened in the elections", true},
		{"BREAKING updates please", true},
		{"how do magnets work", false},
		{"sing me a song", false},
	}

	for _, tt := range tests {
		if got := augmenter.ShouldAugment(tt.query); got != tt.want {
			t.Errorf("ShouldAugment(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestNewsAugmenter_CategoryRouting(t *testing.T) {
	tests := []struct {
		query        string
		wantCategory string
	}{
		{"what's the latest tech news", "technology"},
		{"any sports news today", "sports"},
		{"recent health updates", "health"},
		{"business headlines please", "business"},
		{"science news", "science"},
	}

	for _, tt := range tests {
		t.Run(tt.wantCategory, func(t *testing.T) {
			provider := &fakeNewsProvider{
				headlines: []repositories.Article{{Title: "headline", Source: "src", Description: "desc"}},
			}
			augmenter := NewNewsAugmenter(provider, zap.NewNop())

			augmenter.Augment(context.Background(), tt.query)

			if provider.headlineHits != 1 {
				t.Fatalf("headlineHits = %d, want 1", provider.headlineHits)
			}
			if provider.lastCategory != tt.wantCategory {
				t.Errorf("category = %q, want %q", provider.lastCategory, tt.wantCategory)
			}
		})
	}
}

func TestNewsAugmenter_SearchFallback(t *testing.T) {
	provider := &fakeNewsProvider{
		searched: []repositories.Article{{Title: "quake coverage", Source: "wire", Description: "details"}},
	}
	augmenter := NewNewsAugmenter(provider, zap.NewNop())

	augmenter.Augment(context.Background(), "any news about the earthquake yesterday")

	if provider.searchHits != 1 {
		t.Fatalf("searchHits = %d, want 1", provider.searchHits)
	}
	if provider.lastQuery != "earthquake yesterday" {
		t.Errorf("search query = %q, want %q", provider.lastQuery, "earthquake yesterday")
	}
}

func TestNewsAugmenter_GenericHeadlinesWhenNoTerms(t *testing.T) {
	provider := &fakeNewsProvider{
		headlines: []repositories.Article{{Title: "top story", Source: "src", Description: "desc"}},
	}
	augmenter := NewNewsAugmenter(provider, zap.NewNop())

	// Every word is either a stopword or too short to be a search term.
	augmenter.Augment(context.Background(), "any news")

	if provider.headlineHits != 1 {
		t.Fatalf("headlineHits = %d, want 1", provider.headlineHits)
	}
	if provider.lastCategory != "" {
		t.Errorf("category = %q, want empty (generic headlines)", provider.lastCategory)
	}
}

func TestNewsAugmenter_AugmentedQueryContainsArticles(t *testing.T) {
	provider := &fakeNewsProvider{
		headlines: []repositories.Article{
			{Title: "Robots everywhere", Source: "Tech Wire", Description: "They fold laundry now."},
			{Title: "Second story", Source: "Daily", Description: "More detail."},
		},
	}
	augmenter := NewNewsAugmenter(provider, zap.NewNop())

	query := "what's the latest tech news"
	got := augmenter.Augment(context.Background(), query)

	for _, want := range []string{query, "Robots everywhere", "Tech Wire", "They fold laundry now."} {
		if !strings.Contains(got, want) {
			t.Errorf("augmented query missing %q:\n%s", want, got)
		}
	}
}

func TestNewsAugmenter_DegradesOnFailure(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeNewsProvider
	}{
		{"provider error", &fakeNewsProvider{err: fmt.Errorf("boom")}},
		{"no results", &fakeNewsProvider{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			augmenter := NewNewsAugmenter(tt.provider, zap.NewNop())
			query := "what's the latest tech news"
			if got := augmenter.Augment(context.Background(), query); got != query {
				t.Errorf("Augment on failure = %q, want original query", got)
			}
		})
	}
}

func TestExtractSearchTerms(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"tell me about the latest rocket launch news", "rocket launch"},
		{"what is the news", ""},
		{"Quantum Computing Breakthrough Updates Explained Today", "quantum computing breakthrough"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ExtractSearchTerms(tt.query); got != tt.want {
			t.Errorf("ExtractSearchTerms(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestFormatArticles_CapsAtThree(t *testing.T) {
	articles := []repositories.Article{
		{Title: "one"}, {Title: "two"}, {Title: "three"}, {Title: "four"},
	}
	got := formatArticles(articles)

	if strings.Contains(got, "four") {
		t.Errorf("formatArticles included more than %d articles:\n%s", maxContextArticles, got)
	}
	if !strings.Contains(got, "3. **three**") {
		t.Errorf("formatArticles missing third article:\n%s", got)
	}
	if !strings.Contains(got, "No description available") {
		t.Errorf("formatArticles missing description placeholder:\n%s", got)
	}
}

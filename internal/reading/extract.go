package reading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Quality bar for an article to be used as reading material.
const (
	MinParagraphs = 4
	MinWords      = 500
)

// ErrNoArticle is returned when no topic yields an article that meets the
// quality bar.
var ErrNoArticle = errors.New("no article meets the quality bar")

// Article is an extracted article ready for processing.
type Article struct {
	Title      string   `json:"title"`
	URL        string   `json:"link"`
	Topic      string   `json:"topic"`
	Published  string   `json:"published"`
	Paragraphs []string `json:"paragraphs"`
	WordCount  int      `json:"word_count"`
}

// Searcher finds candidate articles for a topic. Satisfied by NYTClient.
type Searcher interface {
	Search(ctx context.Context, topic string) ([]SearchResult, error)
}

// Fetcher downloads one article page. Satisfied by PageFetcher.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// Extractor pairs search results with their full text.
type Extractor struct {
	search Searcher
	fetch  Fetcher
}

// NewExtractor creates an Extractor.
func NewExtractor(s Searcher, f Fetcher) *Extractor {
	return &Extractor{search: s, fetch: f}
}

// Find tries each topic in order and returns the first article with at least
// MinParagraphs paragraphs and MinWords words.
func (e *Extractor) Find(ctx context.Context, topics []string) (Article, error) {
	if len(topics) == 0 {
		return Article{}, ErrNoArticle
	}
	var errs []error
	for _, topic := range topics {
		a, err := e.extract(ctx, topic)
		if err == nil {
			return a, nil
		}
		if ctx.Err() != nil {
			return Article{}, ctx.Err()
		}
		slog.Warn("no article for topic", "operation", "reading.extract", "topic", topic, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", topic, err))
	}
	return Article{}, fmt.Errorf("%w: %w", ErrNoArticle, errors.Join(errs...))
}

func (e *Extractor) extract(ctx context.Context, topic string) (Article, error) {
	results, err := e.search.Search(ctx, topic)
	if err != nil {
		return Article{}, err
	}

	for _, r := range results {
		if skipURL(r.URL) {
			slog.Debug("skipping non-article url", "operation", "reading.extract", "url", r.URL)
			continue
		}
		page, err := e.fetch.Fetch(ctx, r.URL)
		if err != nil {
			if ctx.Err() != nil {
				return Article{}, ctx.Err()
			}
			slog.Warn("article fetch failed", "operation", "reading.extract", "url", r.URL, "error", err)
			continue
		}

		words := len(strings.Fields(strings.Join(page.Paragraphs, " ")))
		if len(page.Paragraphs) < MinParagraphs || words < MinWords {
			slog.Debug("article below quality bar",
				"operation", "reading.extract",
				"url", r.URL,
				"paragraphs", len(page.Paragraphs),
				"words", words,
			)
			continue
		}

		title := r.Headline
		if title == "" {
			title = page.Title
		}
		slog.Info("article extracted", "operation", "reading.extract", "topic", topic, "title", title, "words", words)
		return Article{
			Title:      title,
			URL:        r.URL,
			Topic:      topic,
			Published:  r.Published,
			Paragraphs: page.Paragraphs,
			WordCount:  words,
		}, nil
	}
	return Article{}, fmt.Errorf("none of %d results met the quality bar", len(results))
}

// skipURL rejects interactive features and learning-network pages.
func skipURL(u string) bool {
	return strings.Contains(u, "/interactive/") || strings.Contains(u, "/learning/")
}

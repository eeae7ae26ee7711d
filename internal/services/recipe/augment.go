package recipe

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dictameal/backend/internal/metrics"
	"github.com/dictameal/backend/internal/services/ai"
)

const (
	// DefaultSearchResults is the number of snippets folded into a prompt.
	DefaultSearchResults = 3
	queryPrefix          = "recipe for "
	queryTextLen         = 100
)

var newlineReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Augmenter fetches web context for sparse dictations.
type Augmenter struct {
	searcher   Searcher
	maxResults int
}

// NewAugmenter creates an augmenter returning at most maxResults snippets
// (DefaultSearchResults when maxResults is not positive).
func NewAugmenter(searcher Searcher, maxResults int) *Augmenter {
	if maxResults <= 0 {
		maxResults = DefaultSearchResults
	}
	return &Augmenter{searcher: searcher, maxResults: maxResults}
}

// BuildSearchQuery derives the search query from the head of the
// dictation: "recipe for " plus its first 100 characters, newlines
// turned into spaces.
func BuildSearchQuery(text string) string {
	head := text
	if runes := []rune(text); len(runes) > queryTextLen {
		head = string(runes[:queryTextLen])
	}
	return queryPrefix + newlineReplacer.Replace(head)
}

// Augment returns search snippets in provider order. It never fails: any
// search problem yields an empty context and structuring carries on
// without it.
func (a *Augmenter) Augment(ctx context.Context, text string) []ai.Snippet {
	query := BuildSearchQuery(text)

	results, err := a.searcher.Search(ctx, query, a.maxResults)
	if err != nil {
		slog.WarnContext(ctx, "search augmentation failed", "error", err, "query", query)
		metrics.RecipeAugmentationResults.Record(ctx, 0)
		return nil
	}
	if len(results) == 0 {
		slog.InfoContext(ctx, "search augmentation returned no results", "query", query)
		metrics.RecipeAugmentationResults.Record(ctx, 0)
		return nil
	}
	if len(results) > a.maxResults {
		results = results[:a.maxResults]
	}

	snippets := make([]ai.Snippet, 0, len(results))
	for _, r := range results {
		snippets = append(snippets, ai.Snippet{Title: r.Title, Body: r.Body})
	}
	metrics.RecipeAugmentationResults.Record(ctx, int64(len(snippets)))
	return snippets
}

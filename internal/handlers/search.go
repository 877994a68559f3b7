package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/user/thesisherald/internal/errors"
	"github.com/user/thesisherald/internal/logging"
	"github.com/user/thesisherald/internal/papers"
	"github.com/user/thesisherald/internal/platform"
)

// SearchHandler handles the category and keyword search commands
type SearchHandler struct {
	*BaseHandler
	source PaperSource
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(base *BaseHandler, source PaperSource) *SearchHandler {
	return &SearchHandler{BaseHandler: base, source: source}
}

// limit applies the configured default and cap to a requested result count
func (h *SearchHandler) limit(max int) int {
	if max <= 0 {
		max = h.Config.Papers.DefaultMaxResults
	}
	if limit := h.Config.Papers.MaxResultsCap; limit > 0 && max > limit {
		max = limit
	}
	if max <= 0 {
		max = 1
	}
	return max
}

// ByCategory posts the newest papers of one or more comma-separated
// categories in a thread and returns how many were found.
func (h *SearchHandler) ByCategory(ctx context.Context, category string, max int, dest platform.Destination) (int, error) {
	categories := papers.SplitTerms(category)
	if len(categories) == 0 {
		return 0, errors.NewError("no category given", errors.ExitValidationError)
	}
	label := strings.Join(categories, ", ")

	found, err := h.source.SearchByCategory(ctx, categories, h.limit(max))
	if err != nil {
		h.Logger.Error("category search failed", logging.String("category", label), logging.Error(err))
		h.notifyFailure(ctx, dest, userMessage(err, "searching"))
		return 0, errors.NewCommandError("search category", err)
	}

	return len(found), h.postResults(ctx, dest, found,
		fmt.Sprintf("No papers found for category '%s'.", label),
		fmt.Sprintf("📚 Found %d papers in '%s':", len(found), label),
		fmt.Sprintf("Search: %s (%d papers)", label, len(found)))
}

// ByKeywords posts the newest papers matching all comma-separated keywords
func (h *SearchHandler) ByKeywords(ctx context.Context, keywords string, max int, dest platform.Destination) (int, error) {
	terms := papers.SplitTerms(keywords)
	if len(terms) == 0 {
		return 0, errors.NewError("no keywords given", errors.ExitValidationError)
	}
	label := strings.Join(terms, ", ")

	found, err := h.source.SearchByKeywords(ctx, terms, nil, h.limit(max))
	if err != nil {
		h.Logger.Error("keyword search failed", logging.String("keywords", label), logging.Error(err))
		h.notifyFailure(ctx, dest, userMessage(err, "searching"))
		return 0, errors.NewCommandError("search keywords", err)
	}

	name := label
	if r := []rune(name); len(r) > 80 {
		name = string(r[:80])
	}
	return len(found), h.postResults(ctx, dest, found,
		fmt.Sprintf("No papers found for keywords: %s", label),
		fmt.Sprintf("📚 Found %d papers for keywords '%s':", len(found), label),
		fmt.Sprintf("Keywords: %s (%d papers)", name, len(found)))
}

func (h *SearchHandler) postResults(ctx context.Context, dest platform.Destination, found []papers.Paper, empty, header, threadName string) error {
	if len(found) == 0 {
		return h.send(ctx, dest, empty)
	}
	thread, err := h.openThread(ctx, dest, header, threadName)
	if err != nil {
		return err
	}
	return h.postCards(ctx, thread, found)
}

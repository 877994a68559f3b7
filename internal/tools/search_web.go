package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/user/thesisherald/internal/websearch"
)

// SearchWebToolName is the registered name of the web search tool
const SearchWebToolName = "search_web"

// WebSearcher is implemented by websearch.DuckDuckGo
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]websearch.Result, error)
}

// NewSearchWebTool exposes general web search to the model
func NewSearchWebTool(searcher WebSearcher, maxResults int) ToolSpec {
	if maxResults <= 0 {
		maxResults = 5
	}
	return ToolSpec{
		Name:        SearchWebToolName,
		Description: "Search the web for background information that is not a research paper (news, documentation, definitions).",
		Params: map[string]ParamSpec{
			"query": {Type: TypeString, Required: true, Description: "Search query"},
		},
		Order: []string{"query"},
		Handler: func(ctx context.Context, args Arguments) (Output, error) {
			query := strings.TrimSpace(args.String("query", ""))
			results, err := searcher.Search(ctx, query)
			if err != nil {
				return Output{}, err
			}
			if len(results) > maxResults {
				results = results[:maxResults]
			}
			return Output{Content: formatWebResults(query, results)}, nil
		},
	}
}

func formatWebResults(query string, results []websearch.Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("No web results found for %q.", query)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Web results for %q:\n", query)
	for i, r := range results {
		fmt.Fprintf(&sb, "\n%d. %s\n   %s\n", i+1, r.Title, r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(&sb, "   %s\n", r.Snippet)
		}
	}
	return sb.String()
}

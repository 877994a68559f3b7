package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/user/thesisherald/internal/papers"
)

// SearchPapersToolName is the registered name of the arXiv search tool
const SearchPapersToolName = "search_papers"

// PaperSearcher is the slice of the arXiv client the tool needs
type PaperSearcher interface {
	Search(ctx context.Context, input string, max int) ([]papers.Paper, error)
	SearchByKeywords(ctx context.Context, keywords, categories []string, max int) ([]papers.Paper, error)
}

// PaperLimits bounds max_results
type PaperLimits struct {
	Default int
	Max     int
}

func (l PaperLimits) bounds() (def, max int) {
	def, max = l.Default, l.Max
	if max <= 0 {
		max = 20
	}
	if def <= 0 {
		def = 5
	}
	if def > max {
		def = max
	}
	return def, max
}

func (l PaperLimits) clamp(requested int, supplied bool) int {
	def, max := l.bounds()
	if !supplied {
		return def
	}
	if requested < 1 {
		return 1
	}
	if requested > max {
		return max
	}
	return requested
}

const paperAbstractExcerpt = 200

// NewSearchPapersTool exposes arXiv search to the model
func NewSearchPapersTool(source PaperSearcher, limits PaperLimits) ToolSpec {
	_, maxAllowed := limits.bounds()
	return ToolSpec{
		Name: SearchPapersToolName,
		Description: "Search arXiv for research papers, newest first. Use comma-separated keywords " +
			"(e.g. \"diffusion models, protein folding\") or an arXiv category such as cs.AI. " +
			"Cite papers in your answer by their arXiv ID.",
		Params: map[string]ParamSpec{
			"query": {
				Type:        TypeString,
				Required:    true,
				Description: "Comma-separated keywords or an arXiv category",
			},
			"max_results": {
				Type:        TypeInteger,
				Description: fmt.Sprintf("Number of papers to return (1-%d)", maxAllowed),
			},
			"categories": {
				Type:        TypeArray,
				Items:       TypeString,
				Description: "Optional arXiv categories to restrict the search, e.g. [\"cs.LG\"]",
			},
		},
		Order: []string{"query", "max_results", "categories"},
		Handler: func(ctx context.Context, args Arguments) (Output, error) {
			query := strings.TrimSpace(args.String("query", ""))
			if query == "" {
				return Output{}, fmt.Errorf("query must not be empty")
			}
			n := limits.clamp(args.Int("max_results", 0), args.Has("max_results"))

			var (
				found []papers.Paper
				err   error
			)
			if categories := args.Strings("categories"); len(categories) > 0 {
				found, err = source.SearchByKeywords(ctx, papers.SplitTerms(query), categories, n)
			} else {
				found, err = source.Search(ctx, query, n)
			}
			if err != nil {
				return Output{}, err
			}
			if len(found) > n {
				found = found[:n]
			}
			return Output{Content: formatPaperList(query, found), Papers: found}, nil
		},
	}
}

func formatPaperList(query string, found []papers.Paper) string {
	if len(found) == 0 {
		return fmt.Sprintf("No papers found for %q.", query)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d papers for %q (newest first):\n", len(found), query)
	for i, p := range found {
		fmt.Fprintf(&sb, "\n%d. %s\n", i+1, p.Title)
		fmt.Fprintf(&sb, "   Authors: %s\n", papers.AuthorList(p.Authors, 3))
		fmt.Fprintf(&sb, "   Published: %s\n", p.Published.Format("2006-01-02"))
		fmt.Fprintf(&sb, "   arXiv ID: %s\n", p.ID)
		fmt.Fprintf(&sb, "   Link: %s\n", p.URL)
		fmt.Fprintf(&sb, "   Abstract: %s\n", papers.Excerpt(p.Abstract, paperAbstractExcerpt))
	}
	return sb.String()
}

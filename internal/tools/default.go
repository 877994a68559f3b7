package tools

import "github.com/user/thesisherald/internal/logging"

// DefaultRegistry registers search_papers and then search_web. A nil web
// searcher leaves web search out.
func DefaultRegistry(source PaperSearcher, limits PaperLimits, web WebSearcher, webMax int, opts DispatchOptions, logger *logging.Logger) (*Registry, error) {
	registry := NewRegistry(opts, logger)
	if err := registry.Register(NewSearchPapersTool(source, limits)); err != nil {
		return nil, err
	}
	if web != nil {
		if err := registry.Register(NewSearchWebTool(web, webMax)); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

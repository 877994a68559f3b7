package websearch

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/user/thesisherald/internal/config"
	"github.com/user/thesisherald/internal/logging"
)

// DefaultBaseURL is the DuckDuckGo HTML lite endpoint.
const DefaultBaseURL = "https://lite.duckduckgo.com/lite/"

const userAgent = "Mozilla/5.0 (compatible; thesisherald/1.0; +https://arxiv.org)"

// ErrEmptyQuery is returned for blank queries.
var ErrEmptyQuery = stderrors.New("query is empty")

// Result is one web search hit. Snippet is Markdown.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// SearchError reports a failed search request.
type SearchError struct {
	Query      string
	StatusCode int // 0 for transport failures
	Err        error
}

func (e *SearchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("web search for %q failed with status %d: %v", e.Query, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("web search for %q failed: %v", e.Query, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// Transient reports whether the same request may succeed later.
func (e *SearchError) Transient() bool {
	return e.StatusCode == 0 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// DuckDuckGo searches the web through the DuckDuckGo lite interface.
type DuckDuckGo struct {
	client     *http.Client
	baseURL    string
	maxResults int
	converter  *md.Converter
	logger     *logging.Logger
}

// NewDuckDuckGo creates a searcher from configuration.
func NewDuckDuckGo(cfg config.WebSearchConfig, logger *logging.Logger) *DuckDuckGo {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	return &DuckDuckGo{
		client:     &http.Client{Timeout: cfg.GetTimeout()},
		baseURL:    baseURL,
		maxResults: maxResults,
		converter:  md.NewConverter("", true, nil),
		logger:     logging.OrNop(logger).Named("websearch"),
	}
}

// MaxResults returns the configured result bound.
func (d *DuckDuckGo) MaxResults() int {
	return d.maxResults
}

// Search posts the query and returns at most MaxResults results.
func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &SearchError{Query: query, StatusCode: http.StatusBadRequest, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &SearchError{Query: query, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &SearchError{Query: query, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status")}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &SearchError{Query: query, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to parse results: %w", err)}
	}

	results := d.parse(doc)
	d.logger.Debug("web search completed",
		logging.String("query", query),
		logging.Int("results", len(results)),
		logging.Duration("duration", time.Since(start)))
	return results, nil
}

// parse pairs each result link with the snippet cell that follows it.
func (d *DuckDuckGo) parse(doc *goquery.Document) []Result {
	var results []Result
	doc.Find("a.result-link").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, _ := link.Attr("href")
		target := unwrapRedirect(href)
		title := strings.Join(strings.Fields(link.Text()), " ")
		if target == "" || title == "" {
			return true
		}

		result := Result{Title: title, URL: target}
		snippetCell := link.Closest("tr").NextAllFiltered("tr").First().Find("td.result-snippet")
		if snippetCell.Length() > 0 {
			result.Snippet = d.snippet(snippetCell)
		}

		results = append(results, result)
		return len(results) < d.maxResults
	})
	return results
}

func (d *DuckDuckGo) snippet(cell *goquery.Selection) string {
	inner, err := cell.Html()
	if err == nil {
		if markdown, err := d.converter.ConvertString(inner); err == nil {
			return strings.Join(strings.Fields(markdown), " ")
		}
	}
	return strings.Join(strings.Fields(cell.Text()), " ")
}

// unwrapRedirect resolves DuckDuckGo's /l/?uddg= redirect links.
func unwrapRedirect(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") {
		return ""
	}
	return u.String()
}

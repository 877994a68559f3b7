package papers

import (
	"context"
	"encoding/xml"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/user/thesisherald/internal/config"
	"github.com/user/thesisherald/internal/errors"
	"github.com/user/thesisherald/internal/logging"
	"github.com/user/thesisherald/internal/querycache"
)

// DefaultBaseURL is the public arXiv query endpoint.
const DefaultBaseURL = "http://export.arxiv.org/api/query"

// ErrPaperNotFound is returned by GetByID when arXiv has no such paper.
var ErrPaperNotFound = stderrors.New("paper not found")

// Client queries the arXiv Atom API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	defaultMax int
	cache      *querycache.LRU[[]Paper] // nil when caching is off
	logger     *logging.Logger
}

// NewClient creates a new arXiv client. Successful queries are cached for
// cfg.CacheTTL seconds when cfg.CacheSize is positive.
func NewClient(cfg config.PapersConfig, logger *logging.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	defaultMax := cfg.DefaultMaxResults
	if defaultMax <= 0 {
		defaultMax = 5
	}
	c := &Client{
		httpClient: &http.Client{Timeout: cfg.GetTimeout()},
		baseURL:    baseURL,
		defaultMax: defaultMax,
		logger:     logging.OrNop(logger).Named("papers"),
	}
	if cfg.CacheSize > 0 {
		c.cache = querycache.New[[]Paper](cfg.CacheSize, cfg.GetCacheTTL())
	}
	return c
}

// Search accepts either categories ("cs.AI" or "cs.AI, cs.LG") or
// comma-separated keywords and returns the newest matching papers.
func (c *Client) Search(ctx context.Context, input string, max int) ([]Paper, error) {
	query := BuildQuery(input)
	if query == "" {
		return nil, errors.NewPaperSourceError(input, 400, fmt.Errorf("empty query"))
	}
	return c.query(ctx, url.Values{"search_query": {query}}, max)
}

// SearchByCategory returns the newest papers in any of the categories.
func (c *Client) SearchByCategory(ctx context.Context, categories []string, max int) ([]Paper, error) {
	if len(categories) == 0 {
		return nil, errors.NewPaperSourceError("", 400, fmt.Errorf("no categories given"))
	}
	return c.query(ctx, url.Values{"search_query": {categoryQuery(categories)}}, max)
}

// SearchByKeywords returns the newest papers matching every keyword,
// optionally restricted to categories.
func (c *Client) SearchByKeywords(ctx context.Context, keywords, categories []string, max int) ([]Paper, error) {
	query := keywordQuery(keywords, categories)
	if query == "" {
		return nil, errors.NewPaperSourceError("", 400, fmt.Errorf("no keywords given"))
	}
	return c.query(ctx, url.Values{"search_query": {query}}, max)
}

// GetByID fetches a single paper. The version suffix is optional.
func (c *Client) GetByID(ctx context.Context, id string) (Paper, error) {
	id = NormalizeID(id)
	if id == "" {
		return Paper{}, ErrPaperNotFound
	}
	results, err := c.query(ctx, url.Values{"id_list": {id}}, 1)
	if err != nil {
		return Paper{}, err
	}
	if len(results) == 0 {
		return Paper{}, ErrPaperNotFound
	}
	return results[0], nil
}

func (c *Client) query(ctx context.Context, params url.Values, max int) ([]Paper, error) {
	if max <= 0 {
		max = c.defaultMax
	}
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(max))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	label := params.Get("search_query")
	if label == "" {
		label = "id:" + params.Get("id_list")
	}

	key := querycache.Key(c.baseURL, params.Encode())
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			c.logger.Debug("arXiv query served from cache", logging.String("query", label))
			return append([]Paper(nil), cached...), nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.NewPaperSourceError(label, 400, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewPaperSourceError(label, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, errors.NewPaperSourceError(label, resp.StatusCode,
			fmt.Errorf("arXiv returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	papers, err := decodeFeed(resp.Body)
	if err != nil {
		// A broken document is not fixed by asking again
		return nil, errors.NewPaperSourceError(label, http.StatusOK, err)
	}
	if len(papers) > max {
		papers = papers[:max]
	}

	c.logger.Debug("arXiv query completed",
		logging.String("query", label),
		logging.Int("results", len(papers)),
		logging.Duration("duration", time.Since(start)))
	if c.cache != nil {
		c.cache.Put(key, append([]Paper(nil), papers...))
	}
	return papers, nil
}

// Atom document as served by export.arxiv.org
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID              string         `xml:"id"`
	Title           string         `xml:"title"`
	Summary         string         `xml:"summary"`
	Published       string         `xml:"published"`
	Updated         string         `xml:"updated"`
	Authors         []atomAuthor   `xml:"author"`
	Links           []atomLink     `xml:"link"`
	Categories      []atomCategory `xml:"category"`
	PrimaryCategory atomCategory   `xml:"http://arxiv.org/schemas/atom primary_category"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

func decodeFeed(r io.Reader) ([]Paper, error) {
	var feed atomFeed
	if err := xml.NewDecoder(r).Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to parse arXiv feed: %w", err)
	}

	papers := make([]Paper, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		// arXiv reports errors as a single entry whose id is an api/errors URL
		if strings.Contains(e.ID, "/api/errors") {
			return nil, fmt.Errorf("arXiv API error: %s", strings.TrimSpace(e.Summary))
		}
		papers = append(papers, e.toPaper())
	}

	sort.SliceStable(papers, func(i, j int) bool {
		return papers[i].Published.After(papers[j].Published)
	})
	return papers, nil
}

func (e atomEntry) toPaper() Paper {
	id := extractArxivID(e.ID)
	p := Paper{
		ID:              id,
		Title:           strings.Join(strings.Fields(e.Title), " "),
		Abstract:        strings.TrimSpace(e.Summary),
		URL:             "https://arxiv.org/abs/" + id,
		Published:       parseTime(e.Published),
		Updated:         parseTime(e.Updated),
		PrimaryCategory: e.PrimaryCategory.Term,
	}
	for _, a := range e.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			p.Authors = append(p.Authors, name)
		}
	}
	for _, cat := range e.Categories {
		if cat.Term != "" {
			p.Categories = append(p.Categories, cat.Term)
		}
	}
	for _, l := range e.Links {
		switch {
		case l.Title == "pdf" || l.Type == "application/pdf":
			p.PDFURL = l.Href
		case l.Rel == "alternate" && l.Href != "":
			p.URL = l.Href
		}
	}
	if p.PDFURL == "" {
		p.PDFURL = "https://arxiv.org/pdf/" + id
	}
	if p.PrimaryCategory == "" && len(p.Categories) > 0 {
		p.PrimaryCategory = p.Categories[0]
	}
	return p
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}

package websearch

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/thesisherald/internal/config"
	htesting "github.com/user/thesisherald/internal/testing"
)

func newSearcher(t *testing.T, maxResults int, handler http.HandlerFunc) *DuckDuckGo {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewDuckDuckGo(config.WebSearchConfig{BaseURL: server.URL, MaxResults: maxResults, Timeout: 5}, nil)
}

func TestDuckDuckGo_Search(t *testing.T) {
	searcher := newSearcher(t, 5, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "mamba state space", r.PostForm.Get("q"))
		_, _ = w.Write([]byte(htesting.DuckDuckGoLitePage(
			htesting.WebResult{Title: "Mamba paper", URL: "https://arxiv.org/abs/2312.00752?x=1&y=2", SnippetHTML: "Linear-time <b>sequence</b> modeling"},
			htesting.WebResult{Title: "Blog post", URL: "https://example.com/mamba", SnippetHTML: "An explainer"},
		)))
	})

	results, err := searcher.Search(context.Background(), "  mamba state space ")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Mamba paper", results[0].Title)
	assert.Equal(t, "https://arxiv.org/abs/2312.00752?x=1&y=2", results[0].URL)
	assert.Equal(t, "Linear-time **sequence** modeling", results[0].Snippet)
	assert.Equal(t, "https://example.com/mamba", results[1].URL)
}

func TestDuckDuckGo_BoundedResults(t *testing.T) {
	var page []htesting.WebResult
	for i := 0; i < 8; i++ {
		page = append(page, htesting.WebResult{Title: "r", URL: "https://example.com/" + string(rune('a'+i))})
	}
	searcher := newSearcher(t, 3, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(htesting.DuckDuckGoLitePage(page...)))
	})

	results, err := searcher.Search(context.Background(), "anything")
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestDuckDuckGo_EmptyQuery(t *testing.T) {
	searcher := newSearcher(t, 5, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := searcher.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestDuckDuckGo_StatusErrors(t *testing.T) {
	tests := []struct {
		status    int
		transient bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
		{http.StatusForbidden, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			searcher := newSearcher(t, 5, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := searcher.Search(context.Background(), "q")
			var se *SearchError
			require.True(t, stderrors.As(err, &se))
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, tt.transient, se.Transient())
		})
	}
}

func TestUnwrapRedirect(t *testing.T) {
	tests := map[string]string{
		"//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2F&rut=1": "https://go.dev/",
		"https://example.org/page":                               "https://example.org/page",
		"/lite/?q=next":                                          "",
		"javascript:void(0)":                                     "",
		"https://duckduckgo.com/about":                           "",
	}
	for in, want := range tests {
		assert.Equal(t, want, unwrapRedirect(in), in)
	}
}

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/thesisherald/internal/orchestrator"
	"github.com/user/thesisherald/internal/papers"
)

var generatedAt = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

func sampleResult() *orchestrator.Result {
	return &orchestrator.Result{
		Question: "Which papers study agents?",
		FinalText: "## Findings\n\nSee [Agents](http://arxiv.org/abs/2410.00001 \"abs\") and https://example.com/x today.\n\n" +
			"```go\nfmt.Println(\"hi\")\n```\n\n<script>alert(1)</script>",
		CitedPapers: []papers.Paper{{
			ID:        "2410.00001",
			Title:     "Agents That Read Papers",
			Authors:   []string{"Ada Lovelace", "Alan Turing"},
			URL:       "http://arxiv.org/abs/2410.00001v1",
			PDFURL:    "http://arxiv.org/pdf/2410.00001v1",
			Published: time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC),
		}},
		Truncated: true,
		State:     orchestrator.Done,
	}
}

func TestAnswerDocument(t *testing.T) {
	doc := AnswerDocument(sampleResult(), generatedAt)

	assert.Equal(t, KindAnswer, doc.Kind)
	assert.Equal(t, "Which papers study agents?", doc.Title)
	assert.True(t, doc.Truncated)
	assert.Len(t, doc.Papers, 1)
}

func TestDocument_Body(t *testing.T) {
	body := AnswerDocument(sampleResult(), generatedAt).Body()

	assert.True(t, strings.HasPrefix(body, "# Which papers study agents?\n\n## Findings"), body)
	assert.NotContains(t, body, "> Which papers", "short questions are already the title")
	assert.Contains(t, body, "*This answer was cut short because the research budget ran out.*")
	assert.Contains(t, body, "## Cited papers\n\n1. [Agents That Read Papers](http://arxiv.org/abs/2410.00001v1) - Ada Lovelace, Alan Turing (2410.00001)\n")

	long := Document{Title: "Short title", Question: "A longer question\nover two lines", Markdown: "text"}
	assert.Contains(t, long.Body(), "> A longer question\n> over two lines\n\ntext\n")
}

func TestHTMLExporter_Render(t *testing.T) {
	out, err := NewHTMLExporter().Render(AnswerDocument(sampleResult(), generatedAt))
	require.NoError(t, err)
	page := string(out)

	assert.Contains(t, page, "<title>Which papers study agents?</title>")
	assert.Contains(t, page, `<div class="badge">answer</div>`)
	assert.Contains(t, page, "Generated on 2026-10-15 09:30")
	assert.Contains(t, page, "<h2>Findings</h2>")
	assert.Contains(t, page, `<a href="http://arxiv.org/abs/2410.00001v1">Agents That Read Papers</a>`)
	assert.Contains(t, page, "<pre")
	assert.NotContains(t, page, "<script>alert(1)</script>", "raw HTML from the model is dropped")
}

func TestHTMLExporter_EscapesTitle(t *testing.T) {
	doc := Document{Kind: KindSummary, Title: "<b>Bold</b> claims", Markdown: "text"}
	out, err := NewHTMLExporter().Render(doc)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<title>&lt;b&gt;Bold&lt;/b&gt; claims</title>")
}

func TestJSONExporter_Render(t *testing.T) {
	out, err := NewJSONExporter().Render(AnswerDocument(sampleResult(), generatedAt))
	require.NoError(t, err)

	var doc JSONDocument
	require.NoError(t, json.Unmarshal(out, &doc))

	assert.Equal(t, KindAnswer, doc.Metadata.Kind)
	assert.Equal(t, "Which papers study agents?", doc.Metadata.Question)
	assert.True(t, doc.Metadata.Truncated)
	assert.True(t, doc.Metadata.GeneratedAt.Equal(generatedAt))
	assert.Equal(t, []Heading{{Level: 2, Text: "Findings"}}, doc.Headings)
	assert.Equal(t, []Link{
		{URL: "http://arxiv.org/abs/2410.00001", Text: "Agents", Title: "abs"},
		{URL: "https://example.com/x", Text: "https://example.com/x"},
	}, doc.Links)
	require.Len(t, doc.Papers, 1)
	assert.Equal(t, "2410.00001", doc.Papers[0].ID)
	assert.Equal(t, "http://arxiv.org/pdf/2410.00001v1", doc.Papers[0].PDFURL)
}

func TestJSONExporter_EmptyCollections(t *testing.T) {
	out, err := NewJSONExporter().Render(Document{Kind: KindDigest, Title: "agents", Markdown: "plain"})
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, `"headings": []`)
	assert.Contains(t, s, `"links": []`)
	assert.Contains(t, s, `"papers": []`)
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	doc := AnswerDocument(sampleResult(), generatedAt)

	for _, name := range []string{"answer.md", "answer.json", "nested/answer.html"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, Write(doc, path))
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.NotEmpty(t, data)
		})
	}

	data, err := os.ReadFile(filepath.Join(dir, "answer.md"))
	require.NoError(t, err)
	assert.Equal(t, doc.Body(), string(data))

	err = Write(doc, filepath.Join(dir, "answer.txt"))
	assert.ErrorContains(t, err, "unsupported output format")
}

package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// JSONDocument is the structured form of an exported document
type JSONDocument struct {
	Metadata Metadata   `json:"metadata"`
	Markdown string     `json:"markdown"`
	Headings []Heading  `json:"headings"`
	Links    []Link     `json:"links"`
	Papers   []PaperRef `json:"papers"`
}

// Metadata contains document metadata
type Metadata struct {
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Question    string    `json:"question,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	Generator   string    `json:"generator"`
	WordCount   int       `json:"word_count"`
	Truncated   bool      `json:"truncated"`
}

// Heading is a heading of the Markdown body
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Link is a link found in the Markdown body, bare URLs included
type Link struct {
	URL   string `json:"url"`
	Text  string `json:"text"`
	Title string `json:"title,omitempty"`
}

// PaperRef is a cited paper
type PaperRef struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Authors    []string  `json:"authors"`
	URL        string    `json:"url"`
	PDFURL     string    `json:"pdf_url,omitempty"`
	Published  time.Time `json:"published"`
	Categories []string  `json:"categories,omitempty"`
}

// JSONExporter converts documents to structured JSON
type JSONExporter struct {
	markdown goldmark.Markdown
}

// NewJSONExporter creates a new JSON exporter
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{markdown: newMarkdown()}
}

// Render parses the document's Markdown and returns indented JSON
func (e *JSONExporter) Render(doc Document) ([]byte, error) {
	jsonDoc, err := e.build(doc)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(jsonDoc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return data, nil
}

func (e *JSONExporter) build(doc Document) (*JSONDocument, error) {
	source := []byte(doc.Markdown)
	root := e.markdown.Parser().Parse(text.NewReader(source))

	out := &JSONDocument{
		Metadata: Metadata{
			Kind:        doc.Kind,
			Title:       doc.Title,
			Question:    doc.Question,
			GeneratedAt: doc.GeneratedAt,
			Generator:   "ThesisHerald",
			WordCount:   len(strings.Fields(doc.Markdown)),
			Truncated:   doc.Truncated,
		},
		Markdown: doc.Markdown,
		Headings: []Heading{},
		Links:    []Link{},
		Papers:   []PaperRef{},
	}

	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			out.Headings = append(out.Headings, Heading{Level: node.Level, Text: nodeText(node, source)})
		case *ast.Link:
			out.Links = append(out.Links, Link{
				URL:   string(node.Destination),
				Text:  nodeText(node, source),
				Title: string(node.Title),
			})
			return ast.WalkSkipChildren, nil
		case *ast.AutoLink:
			out.Links = append(out.Links, Link{
				URL:  string(node.URL(source)),
				Text: string(node.Label(source)),
			})
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk markdown: %w", err)
	}

	for _, p := range doc.Papers {
		out.Papers = append(out.Papers, PaperRef{
			ID:         p.ID,
			Title:      p.Title,
			Authors:    p.Authors,
			URL:        paperURL(p),
			PDFURL:     p.PDFURL,
			Published:  p.Published,
			Categories: p.Categories,
		})
	}
	return out, nil
}

// nodeText concatenates the text below n
func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

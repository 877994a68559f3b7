package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/user/thesisherald/internal/orchestrator"
	"github.com/user/thesisherald/internal/papers"
)

// Document kinds
const (
	KindAnswer  = "answer"
	KindDigest  = "digest"
	KindSummary = "summary"
)

// Document is a generated piece of writing saved outside the chat
type Document struct {
	Kind        string
	Title       string
	Question    string // set for answers
	Markdown    string
	Papers      []papers.Paper
	Truncated   bool
	GeneratedAt time.Time
}

// AnswerDocument builds the document for an orchestrated answer
func AnswerDocument(result *orchestrator.Result, generatedAt time.Time) Document {
	return Document{
		Kind:        KindAnswer,
		Title:       papers.Excerpt(result.Question, 100),
		Question:    result.Question,
		Markdown:    result.FinalText,
		Papers:      result.CitedPapers,
		Truncated:   result.Truncated,
		GeneratedAt: generatedAt,
	}
}

// Body renders the document as Markdown, with the cited papers as a final
// section
func (d Document) Body() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", d.Title)
	if d.Question != "" && d.Question != d.Title {
		fmt.Fprintf(&sb, "> %s\n\n", strings.ReplaceAll(d.Question, "\n", "\n> "))
	}
	sb.WriteString(strings.TrimSpace(d.Markdown))
	sb.WriteString("\n")
	if d.Truncated {
		sb.WriteString("\n*This answer was cut short because the research budget ran out.*\n")
	}
	if len(d.Papers) > 0 {
		sb.WriteString("\n## Cited papers\n\n")
		for i, p := range d.Papers {
			fmt.Fprintf(&sb, "%d. [%s](%s) - %s (%s)\n", i+1, p.Title, paperURL(p), papers.AuthorList(p.Authors, 3), p.ID)
		}
	}
	return sb.String()
}

func paperURL(p papers.Paper) string {
	if p.URL != "" {
		return p.URL
	}
	return "http://arxiv.org/abs/" + p.ID
}

// Write saves doc to path in the format named by its extension:
// .html/.htm, .json, or .md/.markdown
func Write(doc Document, path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		data, err = NewHTMLExporter().Render(doc)
	case ".json":
		data, err = NewJSONExporter().Render(doc)
	case ".md", ".markdown":
		data = []byte(doc.Body())
	default:
		return fmt.Errorf("unsupported output format %q (use .html, .json or .md)", filepath.Ext(path))
	}
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

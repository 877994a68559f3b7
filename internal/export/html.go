package export

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// HTMLExporter renders documents as standalone HTML pages
type HTMLExporter struct {
	markdown     goldmark.Markdown
	htmlTemplate *template.Template
}

// htmlPage is the data for the page template
type htmlPage struct {
	Title       string
	Kind        string
	GeneratedAt string
	Content     template.HTML
	CSS         template.CSS
}

// newMarkdown configures Goldmark with GitHub Flavored Markdown and syntax
// highlighting. Raw HTML in model output is not rendered.
func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("monokai"),
			),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
}

// NewHTMLExporter creates a new HTML exporter
func NewHTMLExporter() *HTMLExporter {
	return &HTMLExporter{
		markdown:     newMarkdown(),
		htmlTemplate: template.Must(template.New("page").Parse(pageTemplate)),
	}
}

// Render converts doc to a complete HTML page
func (e *HTMLExporter) Render(doc Document) ([]byte, error) {
	var body bytes.Buffer
	if err := e.markdown.Convert([]byte(doc.Body()), &body); err != nil {
		return nil, fmt.Errorf("failed to convert markdown: %w", err)
	}

	page := htmlPage{
		Title:       doc.Title,
		Kind:        doc.Kind,
		GeneratedAt: doc.GeneratedAt.Format("2006-01-02 15:04"),
		Content:     template.HTML(body.String()),
		CSS:         template.CSS(pageCSS),
	}

	var out bytes.Buffer
	if err := e.htmlTemplate.Execute(&out, page); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return out.Bytes(), nil
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <meta name="generator" content="ThesisHerald">
    <title>{{.Title}}</title>
    <style>
        {{.CSS}}
    </style>
</head>
<body>
    <div class="container">
        <header>
            <div class="badge">{{.Kind}}</div>
        </header>
        <main>
            {{.Content}}
        </main>
        <footer>
            <p>Generated on {{.GeneratedAt}} by ThesisHerald</p>
        </footer>
    </div>
</body>
</html>
`

const pageCSS = `
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Helvetica, Arial, sans-serif; line-height: 1.6; color: #24292e; background: #f6f8fa; margin: 0; }
.container { max-width: 860px; margin: 0 auto; padding: 2rem; background: #fff; }
header { margin-bottom: 1rem; }
.badge { display: inline-block; padding: 0.2rem 0.6rem; border-radius: 1rem; background: #7D56F4; color: #fff; font-size: 0.8rem; text-transform: uppercase; }
h1, h2, h3 { border-bottom: 1px solid #eaecef; padding-bottom: 0.3em; }
blockquote { margin: 0; padding: 0 1em; color: #6a737d; border-left: 0.25em solid #dfe2e5; }
pre { padding: 1rem; overflow: auto; border-radius: 6px; }
code { font-family: SFMono-Regular, Consolas, "Liberation Mono", Menlo, monospace; font-size: 0.9em; }
a { color: #0366d6; text-decoration: none; }
a:hover { text-decoration: underline; }
footer { margin-top: 2rem; color: #6a737d; font-size: 0.85rem; border-top: 1px solid #eaecef; }
`

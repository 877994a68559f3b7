package testing

import (
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"
)

// ArxivEntry is the input for ArxivFeed.
type ArxivEntry struct {
	ID         string // e.g. "2401.01234v2"
	Title      string
	Summary    string
	Authors    []string
	Published  time.Time
	Categories []string
}

// ArxivFeed renders an Atom document shaped like export.arxiv.org/api/query output.
func ArxivFeed(entries ...ArxivEntry) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	sb.WriteString(`<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">` + "\n")
	sb.WriteString("  <title>ArXiv Query</title>\n")
	fmt.Fprintf(&sb, "  <opensearch:totalResults xmlns:opensearch=\"http://a9.com/-/spec/opensearch/1.1/\">%d</opensearch:totalResults>\n", len(entries))
	for _, e := range entries {
		published := e.Published
		if published.IsZero() {
			published = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		}
		sb.WriteString("  <entry>\n")
		fmt.Fprintf(&sb, "    <id>http://arxiv.org/abs/%s</id>\n", e.ID)
		fmt.Fprintf(&sb, "    <updated>%s</updated>\n", published.Format(time.RFC3339))
		fmt.Fprintf(&sb, "    <published>%s</published>\n", published.Format(time.RFC3339))
		fmt.Fprintf(&sb, "    <title>%s</title>\n", html.EscapeString(e.Title))
		fmt.Fprintf(&sb, "    <summary>%s</summary>\n", html.EscapeString(e.Summary))
		for _, a := range e.Authors {
			fmt.Fprintf(&sb, "    <author><name>%s</name></author>\n", html.EscapeString(a))
		}
		fmt.Fprintf(&sb, "    <link href=\"http://arxiv.org/abs/%s\" rel=\"alternate\" type=\"text/html\"/>\n", e.ID)
		fmt.Fprintf(&sb, "    <link title=\"pdf\" href=\"http://arxiv.org/pdf/%s\" rel=\"related\" type=\"application/pdf\"/>\n", e.ID)
		if len(e.Categories) > 0 {
			fmt.Fprintf(&sb, "    <arxiv:primary_category term=\"%s\" scheme=\"http://arxiv.org/schemas/atom\"/>\n", e.Categories[0])
		}
		for _, c := range e.Categories {
			fmt.Fprintf(&sb, "    <category term=\"%s\" scheme=\"http://arxiv.org/schemas/atom\"/>\n", c)
		}
		sb.WriteString("  </entry>\n")
	}
	sb.WriteString("</feed>\n")
	return sb.String()
}

// WebResult is the input for DuckDuckGoLitePage.
type WebResult struct {
	Title       string
	URL         string
	SnippetHTML string
}

// DuckDuckGoLitePage renders a results table like lite.duckduckgo.com, with
// links wrapped in the /l/?uddg= redirect.
func DuckDuckGoLitePage(results ...WebResult) string {
	var sb strings.Builder
	sb.WriteString("<html><body><form></form><table>\n")
	for i, r := range results {
		redirect := "//duckduckgo.com/l/?uddg=" + url.QueryEscape(r.URL) + "&rut=abc"
		fmt.Fprintf(&sb, "<tr><td valign=\"top\">%d.&nbsp;</td><td><a rel=\"nofollow\" href=\"%s\" class='result-link'>%s</a></td></tr>\n",
			i+1, html.EscapeString(redirect), html.EscapeString(r.Title))
		fmt.Fprintf(&sb, "<tr><td>&nbsp;</td><td class='result-snippet'>%s</td></tr>\n", r.SnippetHTML)
		fmt.Fprintf(&sb, "<tr><td>&nbsp;</td><td><span class='link-text'>%s</span></td></tr>\n", html.EscapeString(r.URL))
	}
	sb.WriteString("</table></body></html>\n")
	return sb.String()
}

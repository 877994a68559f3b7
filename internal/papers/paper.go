package papers

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Paper is one arXiv record. Values are built by Client and never mutated.
type Paper struct {
	ID              string
	Title           string
	Authors         []string
	Abstract        string
	URL             string
	PDFURL          string
	Published       time.Time
	Updated         time.Time
	Categories      []string
	PrimaryCategory string
}

const abstractPreviewLen = 300

// FormatMessage renders the paper as a notification card.
func (p Paper) FormatMessage() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s**\n", p.Title)
	fmt.Fprintf(&sb, "**Authors:** %s\n", AuthorList(p.Authors, 3))
	fmt.Fprintf(&sb, "**Published:** %s\n", p.Published.Format("2006-01-02"))
	fmt.Fprintf(&sb, "**Categories:** %s\n", strings.Join(firstN(p.Categories, 3), ", "))
	fmt.Fprintf(&sb, "**arXiv ID:** %s\n", p.ID)
	fmt.Fprintf(&sb, "**PDF:** %s\n\n", p.PDFURL)
	sb.WriteString(Excerpt(p.Abstract, abstractPreviewLen))
	sb.WriteString("\n")
	return sb.String()
}

// AuthorList joins the first n authors and notes how many there are in total.
func AuthorList(authors []string, n int) string {
	s := strings.Join(firstN(authors, n), ", ")
	if len(authors) > n {
		s += fmt.Sprintf(" et al. (%d authors)", len(authors))
	}
	return s
}

// Excerpt flattens text to a single line and cuts it to max runes, ending
// with "..." when cut.
func Excerpt(text string, max int) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= max {
		return flat
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

var versionSuffix = regexp.MustCompile(`v\d+$`)

// extractArxivID turns "http://arxiv.org/abs/2401.01234v2" into "2401.01234".
// Old-style identifiers keep their archive prefix ("hep-th/9901001").
func extractArxivID(entryID string) string {
	id := strings.TrimSpace(entryID)
	if i := strings.Index(id, "/abs/"); i >= 0 {
		id = id[i+len("/abs/"):]
	}
	return versionSuffix.ReplaceAllString(id, "")
}

// NormalizeID strips an "arXiv:" prefix, URL and version suffix from a
// user-supplied identifier.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > 6 && strings.EqualFold(id[:6], "arxiv:") {
		id = id[6:]
	}
	if i := strings.Index(id, "/pdf/"); i >= 0 {
		id = strings.TrimSuffix(id[i+len("/pdf/"):], ".pdf")
	}
	return extractArxivID(id)
}

package orchestrator

import (
	"strings"
	"unicode"

	"github.com/user/thesisherald/internal/papers"
)

// extractCitations collects the papers returned by successful calls to
// citationTool, deduplicated by ID in first-seen order, and keeps those the
// final text refers to by arXiv ID or by full title.
func extractCitations(turns []Turn, citationTool, finalText string) []papers.Paper {
	var candidates []papers.Paper
	seen := map[string]bool{}
	for _, turn := range turns {
		outcome, ok := turn.(ToolOutcome)
		if !ok || outcome.Result.IsError || outcome.Result.ToolName != citationTool {
			continue
		}
		for _, p := range outcome.Result.Papers {
			if p.ID == "" || seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 || strings.TrimSpace(finalText) == "" {
		return nil
	}

	normalizedText := " " + normalize(finalText) + " "
	var cited []papers.Paper
	for _, p := range candidates {
		if mentionsID(finalText, p.ID) || mentionsTitle(normalizedText, p.Title) {
			cited = append(cited, p)
		}
	}
	return cited
}

// mentionsID finds id as a whole token; a trailing version suffix such as
// "v2" is allowed.
func mentionsID(text, id string) bool {
	if id == "" {
		return false
	}
	for from := 0; ; {
		i := strings.Index(text[from:], id)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(id)
		if !idCharBefore(text, start) && !idCharAfter(text, end) {
			return true
		}
		from = start + 1
	}
}

func idCharBefore(text string, i int) bool {
	if i == 0 {
		return false
	}
	c := text[i-1]
	return isDigit(c) || c == '.' || isLetter(c)
}

func idCharAfter(text string, i int) bool {
	if i >= len(text) {
		return false
	}
	c := text[i]
	if c == 'v' {
		j := i + 1
		for j < len(text) && isDigit(text[j]) {
			j++
		}
		if j > i+1 {
			return j < len(text) && (isDigit(text[j]) || isLetter(text[j]))
		}
		return true
	}
	if c == '.' {
		return i+1 < len(text) && isDigit(text[i+1])
	}
	return isDigit(c) || isLetter(c)
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }

// mentionsTitle matches the complete normalized title on word boundaries.
func mentionsTitle(normalizedText, title string) bool {
	t := normalize(title)
	if t == "" {
		return false
	}
	return strings.Contains(normalizedText, " "+t+" ")
}

// normalize lowercases s and collapses every run of non-alphanumerics into
// a single space.
func normalize(s string) string {
	var sb strings.Builder
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			space = false
			continue
		}
		if !space {
			sb.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(sb.String())
}

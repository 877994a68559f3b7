package formatter

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/user/thesisherald/internal/orchestrator"
	"github.com/user/thesisherald/internal/papers"
)

const (
	DefaultMaxChunkSize = 2000

	TruncatedNotice = "⚠️ This answer was cut short because the research budget ran out. It may be incomplete."
	CitationsHeader = "📚 Cited papers"
)

// Format turns an orchestration result into platform-sized messages: the
// answer text, a notice when the run was truncated, then the cited papers.
func Format(result *orchestrator.Result, max int) []string {
	if max <= 0 {
		max = DefaultMaxChunkSize
	}
	if result == nil {
		return nil
	}

	var chunks []string
	if strings.TrimSpace(result.FinalText) != "" {
		chunks = append(chunks, Split(result.FinalText, max)...)
	}
	if result.Truncated {
		chunks = append(chunks, Split(TruncatedNotice, max)...)
	}
	return append(chunks, citationChunks(result.CitedPapers, max)...)
}

// citationChunks packs "N. Title — URL" lines under a header, starting a new
// chunk whenever the next line would not fit.
func citationChunks(cited []papers.Paper, max int) []string {
	if len(cited) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder
	current.WriteString(CitationsHeader)
	size := utf8.RuneCountInString(CitationsHeader)

	for i, p := range cited {
		line := citationLine(i+1, p)
		n := utf8.RuneCountInString(line)
		if size+1+n <= max {
			current.WriteString("\n")
			current.WriteString(line)
			size += 1 + n
			continue
		}
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
		}
		current.Reset()
		size = 0
		if n > max {
			chunks = append(chunks, Split(line, max)...)
			continue
		}
		current.WriteString(line)
		size = n
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

func citationLine(n int, p papers.Paper) string {
	title := strings.Join(strings.Fields(p.Title), " ")
	if title == "" {
		title = p.ID
	}
	link := p.URL
	if link == "" && p.ID != "" {
		link = "https://arxiv.org/abs/" + p.ID
	}
	if link == "" {
		return fmt.Sprintf("%d. %s", n, title)
	}
	return fmt.Sprintf("%d. %s — %s", n, title, link)
}

package papers

import (
	"strings"
	"testing"
	"time"
)

func TestExtractArxivID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://arxiv.org/abs/2401.01234v2", "2401.01234"},
		{"http://arxiv.org/abs/2401.01234", "2401.01234"},
		{"2401.01234v11", "2401.01234"},
		{"http://arxiv.org/abs/hep-th/9901001v1", "hep-th/9901001"},
	}
	for _, tt := range tests {
		if got := extractArxivID(tt.in); got != tt.want {
			t.Errorf("extractArxivID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeID(t *testing.T) {
	tests := map[string]string{
		"arXiv:2401.01234v3":                     "2401.01234",
		" 2401.01234 ":                           "2401.01234",
		"https://arxiv.org/pdf/2401.01234v1.pdf": "2401.01234",
		"https://arxiv.org/abs/2401.01234":       "2401.01234",
	}
	for in, want := range tests {
		if got := NormalizeID(in); got != want {
			t.Errorf("NormalizeID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPaper_FormatMessage(t *testing.T) {
	p := Paper{
		ID:         "2401.01234",
		Title:      "Attention Is Still All You Need",
		Authors:    []string{"A. One", "B. Two", "C. Three", "D. Four"},
		Abstract:   strings.Repeat("word ", 100),
		PDFURL:     "http://arxiv.org/pdf/2401.01234v1",
		Published:  time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC),
		Categories: []string{"cs.AI", "cs.LG", "cs.CL", "stat.ML"},
	}

	msg := p.FormatMessage()

	for _, want := range []string{
		"**Attention Is Still All You Need**",
		"**Authors:** A. One, B. Two, C. Three et al. (4 authors)",
		"**Published:** 2024-01-03",
		"**Categories:** cs.AI, cs.LG, cs.CL\n",
		"**arXiv ID:** 2401.01234",
		"**PDF:** http://arxiv.org/pdf/2401.01234v1",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "stat.ML") {
		t.Error("only the first three categories should be listed")
	}

	lines := strings.Split(strings.TrimSpace(msg), "\n")
	abstract := lines[len(lines)-1]
	if len([]rune(abstract)) != 300 || !strings.HasSuffix(abstract, "...") {
		t.Errorf("abstract should be cut to 300 chars with ellipsis, got %d: %q", len(abstract), abstract)
	}
}

func TestAuthorList_Short(t *testing.T) {
	if got := AuthorList([]string{"A", "B"}, 3); got != "A, B" {
		t.Errorf("got %q", got)
	}
}

func TestExcerpt_FlattensNewlines(t *testing.T) {
	if got := Excerpt("line one\n  line two", 100); got != "line one line two" {
		t.Errorf("got %q", got)
	}
}

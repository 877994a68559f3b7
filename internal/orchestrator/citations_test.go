package orchestrator

import (
	"testing"

	"github.com/user/thesisherald/internal/papers"
	"github.com/user/thesisherald/internal/tools"
)

func outcomeWith(tool string, isError bool, found ...papers.Paper) ToolOutcome {
	return ToolOutcome{CallID: "x", Result: tools.ToolResult{ToolName: tool, IsError: isError, Papers: found}}
}

func TestExtractCitations(t *testing.T) {
	attention := papers.Paper{ID: "1706.03762", Title: "Attention Is All You Need"}
	bert := papers.Paper{ID: "1810.04805", Title: "BERT: Pre-training of Deep Bidirectional Transformers"}
	oldStyle := papers.Paper{ID: "hep-th/9901001", Title: "Strings"}

	turns := []Turn{
		UserMessage{Text: "q"},
		outcomeWith(tools.SearchPapersToolName, false, attention, bert, attention),
		outcomeWith(tools.SearchPapersToolName, false, oldStyle),
	}

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"id with version", "As shown in 1706.03762v7, ...", []string{"1706.03762"}},
		{"arxiv prefix", "see arXiv:1810.04805.", []string{"1810.04805"}},
		{"url", "https://arxiv.org/abs/1706.03762 is seminal", []string{"1706.03762"}},
		{"title any case and punctuation", "bert -- pre-training of deep bidirectional transformers!", []string{"1810.04805"}},
		{"partial title excluded", "The BERT pre-training approach", nil},
		{"id inside longer number", "ticket 1706.037621 and 21706.03762", nil},
		{"id followed by other suffix", "1706.03762vision", nil},
		{"old style id", "The classic hep-th/9901001 paper", []string{"hep-th/9901001"}},
		{"first-seen order", "Compare 1810.04805 with 1706.03762", []string{"1706.03762", "1810.04805"}},
		{"short common title needs word boundary", "Stringsmith built it", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractCitations(turns, tools.SearchPapersToolName, tt.text)
			var ids []string
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			if len(ids) != len(tt.want) {
				t.Fatalf("got %v, want %v", ids, tt.want)
			}
			for i := range ids {
				if ids[i] != tt.want[i] {
					t.Errorf("got %v, want %v", ids, tt.want)
				}
			}
		})
	}
}

func TestExtractCitations_IgnoresOtherSources(t *testing.T) {
	p := papers.Paper{ID: "2401.00001", Title: "Something"}
	turns := []Turn{
		outcomeWith(tools.SearchWebToolName, false, p),
		outcomeWith(tools.SearchPapersToolName, true, p),
	}
	if got := extractCitations(turns, tools.SearchPapersToolName, "2401.00001"); len(got) != 0 {
		t.Errorf("expected no citations, got %v", got)
	}
}

func TestNormalize(t *testing.T) {
	if got := normalize("  Vision–Language: A Survey (2024)! "); got != "vision language a survey 2024" {
		t.Errorf("normalize = %q", got)
	}
}

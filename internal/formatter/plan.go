package formatter

import (
	"strings"

	"github.com/user/thesisherald/internal/orchestrator"
)

// Placement says where the chunks of an answer go
type Placement int

const (
	Inline Placement = iota
	Thread
)

func (p Placement) String() string {
	if p == Thread {
		return "thread"
	}
	return "inline"
}

const maxThreadNameRunes = 100

// PlanOptions tunes Plan
type PlanOptions struct {
	MaxChunkSize    int
	InlineMaxChunks int // default 1
}

// Plan is a formatted answer plus where to post it
type Plan struct {
	Chunks     []string
	Placement  Placement
	ThreadName string
}

// NewPlan formats result and decides between replying inline and opening a
// thread named after the question.
func NewPlan(result *orchestrator.Result, opts PlanOptions) Plan {
	if opts.InlineMaxChunks <= 0 {
		opts.InlineMaxChunks = 1
	}
	plan := Plan{Chunks: Format(result, opts.MaxChunkSize)}
	if len(plan.Chunks) <= opts.InlineMaxChunks {
		plan.Placement = Inline
		return plan
	}
	plan.Placement = Thread
	question := ""
	if result != nil {
		question = result.Question
	}
	plan.ThreadName = ThreadName(question)
	return plan
}

// ThreadName flattens s to one line and cuts it to the platform's thread
// name limit.
func ThreadName(s string) string {
	name := strings.Join(strings.Fields(s), " ")
	if name == "" {
		return "Research answer"
	}
	runes := []rune(name)
	if len(runes) <= maxThreadNameRunes {
		return name
	}
	return strings.TrimSpace(string(runes[:maxThreadNameRunes-1])) + "…"
}

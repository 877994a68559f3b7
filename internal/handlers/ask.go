package handlers

import (
	"context"

	"github.com/user/thesisherald/internal/errors"
	"github.com/user/thesisherald/internal/formatter"
	"github.com/user/thesisherald/internal/logging"
	"github.com/user/thesisherald/internal/orchestrator"
	"github.com/user/thesisherald/internal/papers"
	"github.com/user/thesisherald/internal/platform"
)

// Asker answers a research question; *orchestrator.Orchestrator implements it
type Asker interface {
	Run(ctx context.Context, question string) (*orchestrator.Result, error)
}

// AskHandler answers a natural-language question and posts the answer
type AskHandler struct {
	*BaseHandler
	asker Asker
}

// NewAskHandler creates a new ask handler. asker is nil when no LLM is
// configured.
func NewAskHandler(base *BaseHandler, asker Asker) *AskHandler {
	return &AskHandler{BaseHandler: base, asker: asker}
}

// Handle runs the orchestration for question and posts the formatted answer
// to dest, inline or in a thread named after the question.
func (h *AskHandler) Handle(ctx context.Context, question string, dest platform.Destination) (*orchestrator.Result, error) {
	if h.asker == nil {
		err := errors.NewConfigurationError("no LLM configured")
		h.notifyFailure(ctx, dest, "LLM integration is not enabled. Please configure llm.api_key or ANTHROPIC_API_KEY.")
		return nil, errors.NewCommandError("ask", err)
	}

	h.Logger.Info("Answering question", logging.String("question", papers.Excerpt(question, 120)))

	result, err := h.asker.Run(ctx, question)
	if err != nil {
		h.Logger.Error("orchestration failed", logging.Error(err))
		h.notifyFailure(ctx, dest, userMessage(err, "answering your question"))
		return nil, errors.NewCommandError("ask", err)
	}

	result.FinalText = h.tidy(result.FinalText)
	plan := formatter.NewPlan(result, formatter.PlanOptions{
		MaxChunkSize:    h.maxChunkSize(),
		InlineMaxChunks: h.Config.Orchestrator.InlineMaxChunks,
	})

	target := dest
	if plan.Placement == formatter.Thread {
		header := "🔎 **Question:** " + papers.Excerpt(question, 300)
		target, err = h.Poster.OpenThread(ctx, dest, header, plan.ThreadName)
		if err != nil {
			return result, err
		}
	}
	if err := h.Poster.Send(ctx, target, plan.Chunks); err != nil {
		return result, err
	}

	h.Logger.Info("Question answered",
		logging.Int("turns", result.TurnCount),
		logging.Bool("truncated", result.Truncated),
		logging.Int("cited_papers", len(result.CitedPapers)),
		logging.Int("chunks", len(plan.Chunks)),
		logging.String("placement", plan.Placement.String()))
	return result, nil
}

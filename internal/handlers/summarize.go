package handlers

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/user/thesisherald/internal/errors"
	"github.com/user/thesisherald/internal/llm"
	"github.com/user/thesisherald/internal/logging"
	"github.com/user/thesisherald/internal/papers"
	"github.com/user/thesisherald/internal/platform"
	"github.com/user/thesisherald/internal/prompts"
)

// SummarizeHandler posts an LLM summary of a single paper
type SummarizeHandler struct {
	*BaseHandler
	source  PaperSource
	client  llm.LLMClient
	prompts *prompts.Manager
}

// NewSummarizeHandler creates a new summarize handler
func NewSummarizeHandler(base *BaseHandler, source PaperSource, client llm.LLMClient, pm *prompts.Manager) *SummarizeHandler {
	return &SummarizeHandler{BaseHandler: base, source: source, client: client, prompts: pm}
}

// Handle summarizes the paper arxivID in language and posts the result
func (h *SummarizeHandler) Handle(ctx context.Context, arxivID, language string, dest platform.Destination) (string, error) {
	if h.client == nil {
		h.notifyFailure(ctx, dest, "LLM integration is not enabled. Please configure llm.api_key or ANTHROPIC_API_KEY.")
		return "", errors.NewCommandError("summarize", errors.NewConfigurationError("no LLM configured"))
	}

	paper, err := h.source.GetByID(ctx, arxivID)
	if err != nil {
		if stderrors.Is(err, papers.ErrPaperNotFound) {
			h.notifyFailure(ctx, dest, fmt.Sprintf("Paper not found: %s", arxivID))
		} else {
			h.notifyFailure(ctx, dest, userMessage(err, "fetching the paper"))
		}
		return "", errors.NewCommandError("summarize", err)
	}

	h.Logger.Info("Summarizing paper", logging.String("arxiv_id", paper.ID), logging.String("language", language))

	authors := strings.Join(firstN(paper.Authors, 5), ", ")
	if len(paper.Authors) > 5 {
		authors += "..."
	}
	prompt, err := h.prompts.Render(prompts.SummarizeUser, map[string]interface{}{
		"Language":   LanguageInstruction(language),
		"Title":      paper.Title,
		"Authors":    authors,
		"Published":  paper.Published.Format("2006-01-02"),
		"ArxivID":    paper.ID,
		"Categories": strings.Join(paper.Categories, ", "),
		"Abstract":   paper.Abstract,
	})
	if err != nil {
		return "", errors.NewCommandError("summarize", err)
	}

	summary, err := h.complete(ctx, h.client, prompt)
	if err != nil {
		h.Logger.Error("summary generation failed", logging.Error(err))
		h.notifyFailure(ctx, dest, "Failed to generate summary: "+userMessage(err, "summarizing"))
		return "", errors.NewCommandError("summarize", err)
	}

	shortAuthors := strings.Join(firstN(paper.Authors, 3), ", ")
	if len(paper.Authors) > 3 {
		shortAuthors += "..."
	}
	text := fmt.Sprintf("📄 **Paper Summary**\n\n**Title:** %s\n**Authors:** %s\n**Published:** %s\n**arXiv ID:** %s\n**PDF:** %s\n\n%s",
		paper.Title, shortAuthors, paper.Published.Format("2006-01-02"), paper.ID, paper.PDFURL, summary)

	if err := h.send(ctx, dest, text); err != nil {
		return text, err
	}
	return text, nil
}

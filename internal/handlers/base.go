package handlers

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/user/thesisherald/internal/config"
	"github.com/user/thesisherald/internal/errors"
	"github.com/user/thesisherald/internal/formatter"
	"github.com/user/thesisherald/internal/llm"
	"github.com/user/thesisherald/internal/llmtypes"
	"github.com/user/thesisherald/internal/logging"
	"github.com/user/thesisherald/internal/papers"
	"github.com/user/thesisherald/internal/platform"
	"github.com/user/thesisherald/internal/validation"
)

var markdown = validation.NewMarkdownValidator()

// PaperSource is the part of papers.Client the handlers need
type PaperSource interface {
	SearchByCategory(ctx context.Context, categories []string, max int) ([]papers.Paper, error)
	SearchByKeywords(ctx context.Context, keywords, categories []string, max int) ([]papers.Paper, error)
	GetByID(ctx context.Context, id string) (papers.Paper, error)
}

// BaseHandler provides common functionality for all handlers
type BaseHandler struct {
	Config *config.HeraldConfig
	Poster platform.Poster
	Logger *logging.Logger
	Now    func() time.Time
}

// NewBaseHandler creates a new base handler
func NewBaseHandler(cfg *config.HeraldConfig, poster platform.Poster, logger *logging.Logger) *BaseHandler {
	return &BaseHandler{
		Config: cfg,
		Poster: poster,
		Logger: logging.OrNop(logger),
		Now:    time.Now,
	}
}

func (h *BaseHandler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h *BaseHandler) maxChunkSize() int {
	if h.Config.Orchestrator.MaxChunkSize <= 0 {
		return formatter.DefaultMaxChunkSize
	}
	return h.Config.Orchestrator.MaxChunkSize
}

// send splits text to the platform limit and posts it
func (h *BaseHandler) send(ctx context.Context, dest platform.Destination, text string) error {
	return h.Poster.Send(ctx, dest, formatter.Split(text, h.maxChunkSize()))
}

// notifyFailure posts the single failure notice a user sees for a command
func (h *BaseHandler) notifyFailure(ctx context.Context, dest platform.Destination, message string) {
	if err := h.send(ctx, dest, "❌ "+message); err != nil {
		h.Logger.Error("failed to post failure notice", logging.Error(err))
	}
}

// openThread posts header to dest and starts a thread under it
func (h *BaseHandler) openThread(ctx context.Context, dest platform.Destination, header, name string) (platform.Destination, error) {
	return h.Poster.OpenThread(ctx, dest, header, formatter.ThreadName(name))
}

// postCards posts one numbered card per paper. A card that fails to post
// is logged and skipped; the error is returned only when none got through.
func (h *BaseHandler) postCards(ctx context.Context, thread platform.Destination, found []papers.Paper) error {
	var lastErr error
	sent := 0
	for i, p := range found {
		card := fmt.Sprintf("**[%d/%d]**\n%s\n%s", i+1, len(found), strings.TrimRight(p.FormatMessage(), "\n"), strings.Repeat("-", 50))
		if err := h.send(ctx, thread, card); err != nil {
			lastErr = err
			h.Logger.Error("failed to send paper",
				logging.String("arxiv_id", p.ID),
				logging.Error(err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		sent++
	}
	if sent == 0 && lastErr != nil {
		return lastErr
	}
	return nil
}

// complete sends a single-prompt request and returns the model's text
func (h *BaseHandler) complete(ctx context.Context, client llm.LLMClient, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.Config.LLM.GetTimeout())
	defer cancel()

	resp, err := client.GenerateCompletion(ctx, llmtypes.CompletionRequest{
		Messages:    []llmtypes.Message{{Role: "user", Content: prompt}},
		MaxTokens:   h.Config.LLM.GetMaxTokens(),
		Temperature: h.Config.LLM.Temperature,
	})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", errors.NewModelProtocolError(client.GetProvider(), "empty completion", nil)
	}
	return h.tidy(text), nil
}

// tidy repairs model-written Markdown before it is posted. Problems that
// cannot be repaired are logged and the text is posted as is.
func (h *BaseHandler) tidy(text string) string {
	fixed, err := markdown.ValidateAndFix(text)
	if err != nil {
		h.Logger.Warn("model output has markdown issues", logging.Error(err))
	}
	return fixed
}

// userMessage turns an error into the text of a failure notice
func userMessage(err error, action string) string {
	var pe *errors.PaperSourceError
	if stderrors.As(err, &pe) && pe.StatusCode >= 429 {
		return fmt.Sprintf("arXiv API is temporarily unavailable (HTTP %d). Please try again in a few moments.", pe.StatusCode)
	}
	var mu *errors.ModelUnavailableError
	if stderrors.As(err, &mu) {
		return fmt.Sprintf("The language model is unavailable right now (%s). Please try again later.", mu.Provider)
	}
	return fmt.Sprintf("An error occurred while %s: %v", action, err)
}

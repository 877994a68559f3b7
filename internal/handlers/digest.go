package handlers

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/user/thesisherald/internal/errors"
	"github.com/user/thesisherald/internal/llm"
	"github.com/user/thesisherald/internal/logging"
	"github.com/user/thesisherald/internal/papers"
	"github.com/user/thesisherald/internal/platform"
	"github.com/user/thesisherald/internal/prompts"
)

// DigestPaperLimit is how many recent papers the model gets to choose from
const DigestPaperLimit = 20

// DigestHandler writes an LLM-curated digest of recent papers on a topic
type DigestHandler struct {
	*BaseHandler
	source  PaperSource
	client  llm.LLMClient
	prompts *prompts.Manager
}

// NewDigestHandler creates a new digest handler
func NewDigestHandler(base *BaseHandler, source PaperSource, client llm.LLMClient, pm *prompts.Manager) *DigestHandler {
	return &DigestHandler{BaseHandler: base, source: source, client: client, prompts: pm}
}

// Generate returns the digest text for topic and the number of papers it
// was written from. With no matching papers it returns a short notice and 0.
func (h *DigestHandler) Generate(ctx context.Context, topic, language string) (string, int, error) {
	if h.client == nil {
		return "", 0, errors.NewConfigurationError("no LLM configured")
	}

	found, err := h.source.SearchByKeywords(ctx, []string{topic}, nil, DigestPaperLimit)
	if err != nil {
		return "", 0, err
	}
	found = h.recent(found)
	if len(found) == 0 {
		return fmt.Sprintf("📭 No papers found for topic: **%s**", topic), 0, nil
	}

	prompt, err := h.prompts.Render(prompts.DigestUser, map[string]interface{}{
		"Topic":    topic,
		"Language": LanguageInstruction(language),
		"Papers":   digestPaperList(found),
	})
	if err != nil {
		return "", 0, errors.NewConfigurationError(fmt.Sprintf("failed to render digest prompt: %v", err))
	}

	digest, err := h.complete(ctx, h.client, prompt)
	if err != nil {
		return "", 0, err
	}

	footer := fmt.Sprintf("\n\n---\n*Generated on %s | Analyzed %d recent papers*", h.now().Format("2006-01-02"), len(found))
	return digest + footer, len(found), nil
}

// Handle generates the digest for topic, posts it in a thread under dest
// and returns the posted text
func (h *DigestHandler) Handle(ctx context.Context, topic, language string, dest platform.Destination) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", errors.NewError("no digest topic given", errors.ExitValidationError)
	}

	h.Logger.Info("Generating digest", logging.String("topic", topic), logging.String("language", language))

	digest, count, err := h.Generate(ctx, topic, language)
	if err != nil {
		h.Logger.Error("digest generation failed", logging.String("topic", topic), logging.Error(err))
		h.notifyFailure(ctx, dest, fmt.Sprintf("Failed to generate digest for topic '%s': %s", topic, userMessage(err, "generating the digest")))
		return "", errors.NewCommandError("digest", err)
	}

	name := topic
	if r := []rune(name); len(r) > 60 {
		name = string(r[:60])
	}
	thread, err := h.openThread(ctx, dest,
		fmt.Sprintf("📊 Weekly digest for: **%s**", topic),
		fmt.Sprintf("Weekly Digest: %s - %s", name, h.now().Format("2006-01-02")))
	if err != nil {
		return digest, err
	}
	if err := h.send(ctx, thread, digest); err != nil {
		return digest, err
	}

	h.Logger.Info("Digest sent", logging.String("topic", topic), logging.Int("papers", count))
	return digest, nil
}

// HandleAll posts a digest for every configured topic to the notification
// channel. A failing topic does not stop the others.
func (h *DigestHandler) HandleAll(ctx context.Context) error {
	cfg := h.Config.Digest
	if !cfg.Enabled {
		h.Logger.Info("Weekly digest is disabled, skipping")
		return nil
	}
	if len(cfg.Topics) == 0 {
		h.Logger.Warn("No digest topics configured, skipping")
		return nil
	}

	dest := platform.Destination{ChannelID: h.Config.Notification.ChannelID}
	var errs []error
	for _, topic := range cfg.Topics {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := h.Handle(ctx, topic, cfg.Language, dest); err != nil {
			errs = append(errs, err)
		}
	}
	if err := stderrors.Join(errs...); err != nil {
		return errors.NewNotificationError(fmt.Sprintf("%d of %d digests failed", len(errs), len(cfg.Topics)), err)
	}
	return nil
}

// recent keeps papers published within the configured number of days
func (h *DigestHandler) recent(found []papers.Paper) []papers.Paper {
	days := h.Config.Digest.Days
	if days <= 0 {
		return found
	}
	cutoff := h.now().Add(-time.Duration(days) * 24 * time.Hour)
	var kept []papers.Paper
	for _, p := range found {
		if p.Published.IsZero() || !p.Published.Before(cutoff) {
			kept = append(kept, p)
		}
	}
	return kept
}

func digestPaperList(found []papers.Paper) string {
	entries := make([]string, len(found))
	for i, p := range found {
		entries[i] = fmt.Sprintf("%d. **%s**\n   Authors: %s\n   Published: %s\n   arXiv ID: %s\n   Categories: %s\n   Abstract: %s",
			i+1, p.Title,
			papers.AuthorList(p.Authors, 3),
			p.Published.Format("2006-01-02"),
			p.ID,
			strings.Join(firstN(p.Categories, 3), ", "),
			papers.Excerpt(p.Abstract, 300))
	}
	return strings.Join(entries, "\n\n")
}

func firstN(c []string, n int) []string {
	if len(c) > n {
		return c[:n]
	}
	return c
}

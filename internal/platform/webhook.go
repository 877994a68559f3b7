package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/user/thesisherald/internal/errors"
	"github.com/user/thesisherald/internal/logging"
)

// HTTPDoer sends a request; *llm.RetryClient implements it
type HTTPDoer interface {
	DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error)
}

type plainClient struct{ *http.Client }

func (c plainClient) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.Do(req.WithContext(ctx))
}

// WebhookPoster posts to a Discord channel through an incoming webhook.
// Threads are addressed with the thread_id query parameter and created
// with thread_name, which Discord supports for forum channels.
type WebhookPoster struct {
	webhookURL string
	client     HTTPDoer
	logger     *logging.Logger
}

type webhookPayload struct {
	Content    string `json:"content"`
	ThreadName string `json:"thread_name,omitempty"`
}

type webhookMessage struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}

// NewWebhookPoster creates a poster for webhookURL. Pass a retrying client
// to ride out rate limits; nil sends each message once.
func NewWebhookPoster(webhookURL string, client HTTPDoer, logger *logging.Logger) *WebhookPoster {
	if client == nil {
		client = plainClient{&http.Client{Timeout: 30 * time.Second}}
	}
	return &WebhookPoster{
		webhookURL: webhookURL,
		client:     client,
		logger:     logging.OrNop(logger).Named("webhook"),
	}
}

func (w *WebhookPoster) Send(ctx context.Context, dest Destination, chunks []string) error {
	for i, chunk := range chunks {
		if _, err := w.post(ctx, dest.ThreadID, webhookPayload{Content: chunk}); err != nil {
			return errors.NewNotificationError(fmt.Sprintf("posting message %d of %d", i+1, len(chunks)), err)
		}
	}
	w.logger.Debug("messages posted",
		logging.Int("chunks", len(chunks)),
		logging.String("thread_id", dest.ThreadID))
	return nil
}

func (w *WebhookPoster) OpenThread(ctx context.Context, channel Destination, header, name string) (Destination, error) {
	msg, err := w.post(ctx, "", webhookPayload{Content: header, ThreadName: name})
	if err != nil {
		return Destination{}, errors.NewNotificationError("opening thread "+name, err)
	}
	if msg.ChannelID == "" {
		return Destination{}, errors.NewNotificationError("opening thread "+name, fmt.Errorf("webhook response has no channel_id"))
	}
	w.logger.Info("thread opened",
		logging.String("thread", name),
		logging.String("thread_id", msg.ChannelID))
	return Destination{ChannelID: channel.ChannelID, ThreadID: msg.ChannelID, ThreadName: name}, nil
}

// post sends one message and waits for Discord to return it
func (w *WebhookPoster) post(ctx context.Context, threadID string, payload webhookPayload) (webhookMessage, error) {
	var msg webhookMessage

	target, err := url.Parse(w.webhookURL)
	if err != nil {
		return msg, fmt.Errorf("invalid webhook url: %w", err)
	}
	q := target.Query()
	q.Set("wait", "true")
	if threadID != "" {
		q.Set("thread_id", threadID)
	}
	target.RawQuery = q.Encode()

	body, err := json.Marshal(payload)
	if err != nil {
		return msg, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(body))
	if err != nil {
		return msg, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.DoWithContext(ctx, req)
	if err != nil {
		return msg, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return msg, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return msg, fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &msg); err != nil {
			return msg, fmt.Errorf("decoding webhook response: %w", err)
		}
	}
	return msg, nil
}

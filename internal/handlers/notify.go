package handlers

import (
	"context"
	"fmt"

	"github.com/user/thesisherald/internal/errors"
	"github.com/user/thesisherald/internal/logging"
	"github.com/user/thesisherald/internal/platform"
)

// NotifyHandler posts the daily paper update to the notification channel
type NotifyHandler struct {
	*BaseHandler
	source PaperSource
}

// NewNotifyHandler creates a new notify handler
func NewNotifyHandler(base *BaseHandler, source PaperSource) *NotifyHandler {
	return &NotifyHandler{BaseHandler: base, source: source}
}

// Handle fetches the newest papers of the default categories and posts
// them in a dated thread. It returns the number of papers found.
func (h *NotifyHandler) Handle(ctx context.Context) (int, error) {
	cfg := h.Config.Papers
	dest := platform.Destination{ChannelID: h.Config.Notification.ChannelID}

	h.Logger.Info("Running daily paper notification",
		logging.Strings("categories", cfg.DefaultCategories),
		logging.Int("max_results", cfg.NotificationMaxResults))

	found, err := h.source.SearchByCategory(ctx, cfg.DefaultCategories, cfg.NotificationMaxResults)
	if err != nil {
		return 0, errors.NewNotificationError("fetching papers", err)
	}

	if len(found) == 0 {
		if err := h.send(ctx, dest, "No new papers found today."); err != nil {
			return 0, errors.NewNotificationError("posting empty update", err)
		}
		return 0, nil
	}

	today := h.now().Format("2006-01-02")
	thread, err := h.openThread(ctx, dest,
		fmt.Sprintf("📚 **Daily Paper Update** - Found %d new papers:", len(found)),
		fmt.Sprintf("Daily Papers: %s (%d papers)", today, len(found)))
	if err != nil {
		return 0, errors.NewNotificationError("opening thread", err)
	}
	if err := h.postCards(ctx, thread, found); err != nil {
		return 0, errors.NewNotificationError("posting papers", err)
	}

	h.Logger.Info("Daily notification sent", logging.Int("papers", len(found)))
	return len(found), nil
}

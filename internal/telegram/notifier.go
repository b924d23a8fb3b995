package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teemow/inboxtriage/internal/gmail"
	"github.com/teemow/inboxtriage/internal/logging"
	"github.com/teemow/inboxtriage/internal/rate"
	"github.com/teemow/inboxtriage/internal/taxonomy"
)

// snippetLimit caps the preview included in a notification.
const snippetLimit = 200

// Notifier delivers importance notifications to the operator's chat with an
// inline "Reply" button that starts the draft workflow.
type Notifier struct {
	client  *Client
	chatID  int64
	limiter rate.Limiter
	logger  *slog.Logger
}

// NewNotifier creates a notifier for the given chat. limiter may be nil to
// disable outbound rate limiting.
func NewNotifier(client *Client, chatID int64, limiter rate.Limiter, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		client:  client,
		chatID:  chatID,
		limiter: limiter,
		logger:  logging.WithComponent(logger, "telegram"),
	}
}

// NotifyImportant sends exactly one notification for an important
// classification: the category label, the subject, a truncated preview, and
// a reply action referencing the message id.
func (n *Notifier) NotifyImportant(ctx context.Context, msg *gmail.Message, category taxonomy.Key) error {
	if n.limiter != nil {
		if err := n.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	text := fmt.Sprintf("📧 *Important Email*\n\n*Category:* %s\n*Subject:* %s\n*Snippet:* %s",
		taxonomy.Label(category), msg.Subject, truncate(msg.Snippet, snippetLimit))

	keyboard := &InlineKeyboardMarkup{
		InlineKeyboard: [][]InlineKeyboardButton{{
			{Text: "↩️ Reply", CallbackData: "reply:" + msg.ID},
		}},
	}

	if err := n.client.SendMessage(ctx, n.chatID, text, keyboard); err != nil {
		return err
	}

	n.logger.Debug("notification sent",
		logging.MessageID(msg.ID),
		logging.Category(string(category)))
	return nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

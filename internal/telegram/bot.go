package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/teemow/inboxtriage/internal/agent"
	"github.com/teemow/inboxtriage/internal/draft"
	"github.com/teemow/inboxtriage/internal/logging"
	"github.com/teemow/inboxtriage/internal/rate"
)

// pollRetryDelay spaces out retries after a failed getUpdates call.
const pollRetryDelay = 3 * time.Second

const helpText = "🤖 *Email Agent Bot Commands*\n\n" +
	"/start - Start the email agent\n" +
	"/start backfill - Start with a one-time wide sweep first\n" +
	"/stop - Stop the email agent\n" +
	"/status - Check agent status\n" +
	"/help - Show this help message"

// Bot is the chat control surface: it long-polls for updates and dispatches
// commands to the lifecycle controller, button presses and free text to the
// draft manager. Only one allow-listed chat id is served; everything else is
// rejected.
type Bot struct {
	client     *Client
	chatID     int64
	controller *agent.Controller
	drafts     *draft.Manager
	limiter    rate.Limiter
	logger     *slog.Logger
}

// NewBot creates the bot for a single authorized chat. limiter may be nil to
// disable command rate limiting.
func NewBot(client *Client, chatID int64, controller *agent.Controller, drafts *draft.Manager, limiter rate.Limiter, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		client:     client,
		chatID:     chatID,
		controller: controller,
		drafts:     drafts,
		limiter:    limiter,
		logger:     logging.WithComponent(logger, "telegram"),
	}
}

// Run long-polls for updates until the context is canceled. Poll failures
// are logged and retried; a single bad update never stops the loop.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("bot listening for commands")

	var offset int64
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		updates, err := b.client.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.logger.Warn("failed to poll updates", logging.Err(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, u := range updates {
			offset = u.UpdateID + 1
			b.dispatch(ctx, u)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, u Update) {
	switch {
	case u.CallbackQuery != nil:
		b.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		b.handleMessage(ctx, u.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *Message) {
	if msg.Chat.ID != b.chatID {
		b.logger.Warn("unauthorized message", slog.Int64("chat_id", msg.Chat.ID))
		b.send(ctx, msg.Chat.ID, "⛔ Unauthorized access")
		return
	}

	if b.limiter != nil && !b.limiter.Allow() {
		b.send(ctx, msg.Chat.ID, "⏳ Too many commands, slow down.")
		return
	}

	fields := strings.Fields(msg.Text)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "/start":
		b.handleStart(ctx, fields[1:])
	case "/stop":
		b.handleStop(ctx)
	case "/status":
		b.handleStatus(ctx)
	case "/help":
		b.send(ctx, b.chatID, helpText)
	default:
		b.handleFreeText(ctx, msg.Text)
	}
}

func (b *Bot) handleStart(ctx context.Context, args []string) {
	mode := agent.ModeMonitor
	if len(args) > 0 && args[0] == "backfill" {
		mode = agent.ModeBackfill
	}

	if err := b.controller.Start(mode); err != nil {
		if errors.Is(err, agent.ErrAlreadyRunning) {
			b.send(ctx, b.chatID, "❌ Agent is already running")
		} else {
			b.send(ctx, b.chatID, "❌ "+err.Error())
		}
		return
	}

	b.send(ctx, b.chatID,
		"✅ Email Agent Started!\n\n"+
			"The agent is now monitoring your emails and will send notifications for important messages.")
}

func (b *Bot) handleStop(ctx context.Context) {
	if err := b.controller.Stop(); err != nil {
		if errors.Is(err, agent.ErrNotRunning) {
			b.send(ctx, b.chatID, "❌ Agent is not running")
		} else {
			b.send(ctx, b.chatID, "❌ "+err.Error())
		}
		return
	}

	b.send(ctx, b.chatID,
		"🛑 Email Agent Stopping...\n\n"+
			"The agent will stop after completing the current cycle.")
}

func (b *Bot) handleStatus(ctx context.Context) {
	st := b.controller.Status()

	emoji := "🔴"
	if st.State == agent.StateRunning {
		emoji = "🟢"
	}

	lastRun := "Never"
	if !st.LastRun.IsZero() {
		lastRun = st.LastRun.Format("2006-01-02 15:04:05")
	}

	b.send(ctx, b.chatID, fmt.Sprintf("%s *Agent Status*\n\nStatus: %s\nLast Run: %s",
		emoji, st.State, lastRun))
}

// handleFreeText routes non-command text into the draft manager. Text sent
// while no draft slot is armed is silently ignored.
func (b *Bot) handleFreeText(ctx context.Context, text string) {
	d, handled, err := b.drafts.FreeText(ctx, b.conversationID(), text)
	if err != nil {
		b.send(ctx, b.chatID, "❌ "+err.Error())
		return
	}
	if !handled {
		return
	}
	b.sendDraft(ctx, d)
}

func (b *Bot) handleCallback(ctx context.Context, cb *CallbackQuery) {
	if cb.Message == nil || cb.Message.Chat.ID != b.chatID {
		b.answer(ctx, cb.ID, "Unauthorized")
		return
	}

	if b.limiter != nil && !b.limiter.Allow() {
		b.answer(ctx, cb.ID, "Too many requests")
		return
	}

	action, messageID, ok := strings.Cut(cb.Data, ":")
	if !ok {
		b.answer(ctx, cb.ID, "")
		return
	}

	conv := b.conversationID()

	switch action {
	case "reply":
		b.answer(ctx, cb.ID, "Generating draft...")
		d, err := b.drafts.Reply(ctx, conv, messageID)
		if err != nil {
			b.send(ctx, b.chatID, "❌ Failed to generate draft: "+err.Error())
			return
		}
		b.sendDraft(ctx, d)

	case "send":
		err := b.drafts.Send(ctx, conv, messageID)
		switch {
		case errors.Is(err, draft.ErrDraftExpired):
			b.answer(ctx, cb.ID, "Draft expired")
			b.send(ctx, b.chatID, "❌ This draft was replaced by a newer one.")
		case errors.Is(err, draft.ErrNoDraft):
			b.answer(ctx, cb.ID, "No active draft")
		case err != nil:
			b.answer(ctx, cb.ID, "Send failed")
			b.send(ctx, b.chatID, "❌ Failed to send reply: "+err.Error())
		default:
			b.answer(ctx, cb.ID, "Sent")
			b.send(ctx, b.chatID, "✅ Reply sent!")
		}

	case "edit":
		if err := b.drafts.Edit(ctx, conv); err != nil {
			b.answer(ctx, cb.ID, "No active draft")
			return
		}
		b.answer(ctx, cb.ID, "")
		b.send(ctx, b.chatID, "✏️ Send the full replacement text as your next message.")

	case "regenerate":
		if err := b.drafts.Regenerate(ctx, conv); err != nil {
			b.answer(ctx, cb.ID, "No active draft")
			return
		}
		b.answer(ctx, cb.ID, "")
		b.send(ctx, b.chatID, "🔄 Send instructions for the new draft as your next message.")

	case "cancel":
		if err := b.drafts.Cancel(ctx, conv); err != nil {
			b.answer(ctx, cb.ID, "No active draft")
			return
		}
		b.answer(ctx, cb.ID, "Canceled")
		b.send(ctx, b.chatID, "🗑 Draft discarded.")

	default:
		b.answer(ctx, cb.ID, "")
	}
}

// sendDraft presents the current draft body with its action keyboard.
func (b *Bot) sendDraft(ctx context.Context, d *draft.Draft) {
	text := fmt.Sprintf("📝 *Draft Reply*\n\nTo: %s\nSubject: %s\n\n%s",
		d.Recipient, d.Subject, d.Body)

	keyboard := &InlineKeyboardMarkup{
		InlineKeyboard: [][]InlineKeyboardButton{
			{
				{Text: "✅ Send", CallbackData: "send:" + d.MessageID},
				{Text: "✏️ Edit", CallbackData: "edit:" + d.MessageID},
			},
			{
				{Text: "🔄 Regenerate", CallbackData: "regenerate:" + d.MessageID},
				{Text: "🗑 Cancel", CallbackData: "cancel:" + d.MessageID},
			},
		},
	}

	if err := b.client.SendMessage(ctx, b.chatID, text, keyboard); err != nil {
		b.logger.Warn("failed to send draft preview", logging.Err(err))
	}
}

func (b *Bot) conversationID() string {
	return strconv.FormatInt(b.chatID, 10)
}

func (b *Bot) send(ctx context.Context, chatID int64, text string) {
	if err := b.client.SendMessage(ctx, chatID, text, nil); err != nil {
		b.logger.Warn("failed to send message", logging.Err(err))
	}
}

func (b *Bot) answer(ctx context.Context, callbackID, text string) {
	if err := b.client.AnswerCallback(ctx, callbackID, text); err != nil {
		b.logger.Warn("failed to answer callback", logging.Err(err))
	}
}

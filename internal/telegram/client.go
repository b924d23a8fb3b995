package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultAPIBase = "https://api.telegram.org"

// longPollSeconds is the getUpdates wait passed to the Bot API. The HTTP
// client timeout must exceed it or every idle poll would error out.
const longPollSeconds = 50

// telegramHTTPClient carries every Bot API call with explicit timeouts.
var telegramHTTPClient = &http.Client{
	Timeout: 60 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	},
}

// Client is a minimal Telegram Bot API client covering the methods the
// notifier and the bot loop need.
type Client struct {
	token   string
	baseURL string
	client  *http.Client
}

// NewClient creates a Bot API client for the given bot token.
func NewClient(token string) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("token cannot be empty")
	}
	return &Client{
		token:   token,
		baseURL: defaultAPIBase,
		client:  telegramHTTPClient,
	}, nil
}

type sendMessageRequest struct {
	ChatID      int64                 `json:"chat_id"`
	Text        string                `json:"text"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// SendMessage delivers a Markdown-formatted message to a chat, optionally
// with an inline keyboard attached.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, keyboard *InlineKeyboardMarkup) error {
	req := sendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   "Markdown",
		ReplyMarkup: keyboard,
	}
	return c.call(ctx, "sendMessage", req, nil)
}

type answerCallbackRequest struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
}

// AnswerCallback acknowledges an inline button press so the client stops
// showing its progress spinner.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	req := answerCallbackRequest{CallbackQueryID: callbackID, Text: text}
	return c.call(ctx, "answerCallbackQuery", req, nil)
}

type getUpdatesRequest struct {
	Offset  int64 `json:"offset,omitempty"`
	Timeout int   `json:"timeout"`
}

// GetUpdates long-polls for updates with an id greater than or equal to
// offset. It blocks up to longPollSeconds when no updates are pending.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	req := getUpdatesRequest{Offset: offset, Timeout: longPollSeconds}

	var updates []Update
	if err := c.call(ctx, "getUpdates", req, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// call posts a JSON payload to one Bot API method and decodes the envelope.
// result, when non-nil, receives the unmarshaled result field.
func (c *Client) call(ctx context.Context, method string, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &TelegramError{Op: method, Err: fmt.Errorf("failed to encode request: %w", err)}
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &TelegramError{Op: method, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &TelegramError{Op: method, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &TelegramError{Op: method, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var envelope apiResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return &TelegramError{Op: method, Err: fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)}
	}
	if !envelope.OK {
		return &TelegramError{Op: method, Err: fmt.Errorf("api error (status %d): %s", resp.StatusCode, envelope.Description)}
	}

	if result != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return &TelegramError{Op: method, Err: fmt.Errorf("failed to decode result: %w", err)}
		}
	}
	return nil
}

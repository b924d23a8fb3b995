package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxtriage/internal/gmail"
	"github.com/teemow/inboxtriage/internal/taxonomy"
)

type failingLimiter struct{}

func (failingLimiter) Wait(context.Context) error { return errors.New("limiter stopped") }
func (failingLimiter) Allow() bool                { return false }

func TestNotifyImportant(t *testing.T) {
	client, rec := newTestClient(t)
	n := NewNotifier(client, authorizedChat, nil, nil)

	msg := &gmail.Message{
		ID:      "m1",
		Sender:  "recruiter@example.com",
		Subject: "Interview with Acme",
		Snippet: "We would like to invite you",
	}

	require.NoError(t, n.NotifyImportant(context.Background(), msg, taxonomy.InterviewRequest))

	sent := rec.call(t, "sendMessage", 0)
	assert.Equal(t, float64(authorizedChat), sent["chat_id"])

	text := sent["text"].(string)
	assert.Contains(t, text, "Important Email")
	assert.Contains(t, text, taxonomy.Label(taxonomy.InterviewRequest))
	assert.Contains(t, text, "Interview with Acme")
	assert.Contains(t, text, "We would like to invite you")

	rows := sent["reply_markup"].(map[string]any)["inline_keyboard"].([]any)
	button := rows[0].([]any)[0].(map[string]any)
	assert.Equal(t, "reply:m1", button["callback_data"])
}

func TestNotifyImportantTruncatesSnippet(t *testing.T) {
	client, rec := newTestClient(t)
	n := NewNotifier(client, authorizedChat, nil, nil)

	msg := &gmail.Message{
		ID:      "m1",
		Subject: "Long one",
		Snippet: strings.Repeat("x", 500),
	}

	require.NoError(t, n.NotifyImportant(context.Background(), msg, taxonomy.FollowUp))

	text := rec.call(t, "sendMessage", 0)["text"].(string)
	assert.Contains(t, text, strings.Repeat("x", snippetLimit)+"...")
	assert.NotContains(t, text, strings.Repeat("x", snippetLimit+1))
}

func TestNotifyImportantLimiterError(t *testing.T) {
	client, rec := newTestClient(t)
	n := NewNotifier(client, authorizedChat, failingLimiter{}, nil)

	err := n.NotifyImportant(context.Background(), &gmail.Message{ID: "m1"}, taxonomy.FollowUp)
	require.Error(t, err)
	assert.Zero(t, rec.callCount("sendMessage"))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{name: "short stays", in: "hello", limit: 10, want: "hello"},
		{name: "exact stays", in: "hello", limit: 5, want: "hello"},
		{name: "long truncated", in: "hello world", limit: 5, want: "hello..."},
		{name: "multibyte safe", in: "héllo wörld", limit: 5, want: "héllo..."},
		{name: "empty", in: "", limit: 5, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncate(tt.in, tt.limit))
		})
	}
}

package agent_tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxtriage/internal/agent"
	"github.com/teemow/inboxtriage/internal/classify"
	"github.com/teemow/inboxtriage/internal/draft"
	"github.com/teemow/inboxtriage/internal/gmail"
	"github.com/teemow/inboxtriage/internal/taxonomy"
)

type nopRunner struct{}

func (nopRunner) Run(context.Context, classify.Pass) error { return nil }

type fakeGateway struct {
	messages map[string]*gmail.Message
	sent     []string
}

func (f *fakeGateway) FetchSince(_ context.Context, _, _ int, _ bool) ([]*gmail.Message, error) {
	return nil, nil
}

func (f *fakeGateway) GetDetail(_ context.Context, messageID string) (*gmail.Message, error) {
	msg, ok := f.messages[messageID]
	if !ok {
		return nil, errors.New("message not found")
	}
	return msg, nil
}

func (f *fakeGateway) EnsureLabel(_ context.Context, name string) (string, error) {
	return "id-" + name, nil
}

func (f *fakeGateway) ApplyLabel(_ context.Context, _, _ string) error { return nil }

func (f *fakeGateway) SendReply(_ context.Context, threadID, _, _, _ string) error {
	f.sent = append(f.sent, threadID)
	return nil
}

type fakeOracle struct{}

func (fakeOracle) Classify(_ context.Context, _ []taxonomy.Key, _, _ string) (string, error) {
	return "uncategorized", nil
}

func (fakeOracle) GenerateReply(_ context.Context, _, instructions string) (string, error) {
	return "generated reply [" + instructions + "]", nil
}

func request(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func newController() *agent.Controller {
	return agent.New(nopRunner{}, agent.Config{PollInterval: time.Hour}, nil, nil)
}

func newDraftManager() (*draft.Manager, *fakeGateway) {
	gateway := &fakeGateway{messages: map[string]*gmail.Message{
		"m1": {
			ID:       "m1",
			ThreadID: "t1",
			Sender:   "recruiter@example.com",
			Subject:  "Interview with Acme",
			Body:     "full body",
		},
	}}
	return draft.NewManager(gateway, fakeOracle{}, nil, nil), gateway
}

func stopController(t *testing.T, c *agent.Controller) {
	t.Helper()
	if c.Status().State == agent.StateRunning {
		require.NoError(t, c.Stop())
	}
	if done := c.Done(); done != nil {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("worker did not stop")
		}
	}
}

func TestHandleAgentStart(t *testing.T) {
	controller := newController()
	defer stopController(t, controller)

	result, err := handleAgentStart(request(map[string]any{}), controller)
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "monitor mode")

	// Second start reports the conflict as a tool error, not a Go error.
	result, err = handleAgentStart(request(map[string]any{}), controller)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleAgentStartBackfill(t *testing.T) {
	controller := newController()
	defer stopController(t, controller)

	result, err := handleAgentStart(request(map[string]any{"mode": "backfill"}), controller)
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "backfill mode")
}

func TestHandleAgentStartInvalidMode(t *testing.T) {
	controller := newController()

	result, err := handleAgentStart(request(map[string]any{"mode": "turbo"}), controller)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleAgentStopNotRunning(t *testing.T) {
	result, err := handleAgentStop(newController())
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "not running")
}

func TestHandleAgentStatus(t *testing.T) {
	controller := newController()

	result, err := handleAgentStatus(controller)
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "stopped")
	assert.Contains(t, text, "never")
}

func TestHandleDraftReply(t *testing.T) {
	drafts, _ := newDraftManager()

	result, err := handleDraftReply(context.Background(), request(map[string]any{
		"conversationId": "c1",
		"messageId":      "m1",
	}), drafts)
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "recruiter@example.com")
	assert.Contains(t, text, "generated reply []")
}

func TestHandleDraftReplyMissingArgs(t *testing.T) {
	drafts, _ := newDraftManager()

	result, err := handleDraftReply(context.Background(), request(map[string]any{
		"conversationId": "c1",
	}), drafts)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleDraftSend(t *testing.T) {
	drafts, gateway := newDraftManager()
	ctx := context.Background()

	_, err := handleDraftReply(ctx, request(map[string]any{
		"conversationId": "c1",
		"messageId":      "m1",
	}), drafts)
	require.NoError(t, err)

	result, err := handleDraftSend(ctx, request(map[string]any{
		"conversationId": "c1",
		"messageId":      "m1",
	}), drafts)
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Reply sent")
	assert.Equal(t, []string{"t1"}, gateway.sent)
}

func TestHandleDraftSendStale(t *testing.T) {
	drafts, gateway := newDraftManager()
	ctx := context.Background()

	_, err := handleDraftReply(ctx, request(map[string]any{
		"conversationId": "c1",
		"messageId":      "m1",
	}), drafts)
	require.NoError(t, err)

	result, err := handleDraftSend(ctx, request(map[string]any{
		"conversationId": "c1",
		"messageId":      "m0",
	}), drafts)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Draft expired")
	assert.Empty(t, gateway.sent)
}

func TestHandleDraftSendNoDraft(t *testing.T) {
	drafts, _ := newDraftManager()

	result, err := handleDraftSend(context.Background(), request(map[string]any{
		"conversationId": "c1",
		"messageId":      "m1",
	}), drafts)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleDraftEdit(t *testing.T) {
	drafts, _ := newDraftManager()
	ctx := context.Background()

	_, err := handleDraftReply(ctx, request(map[string]any{
		"conversationId": "c1",
		"messageId":      "m1",
	}), drafts)
	require.NoError(t, err)

	result, err := handleDraftEdit(ctx, request(map[string]any{
		"conversationId": "c1",
		"body":           "my own wording",
	}), drafts)
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "my own wording")
}

func TestHandleDraftRegenerate(t *testing.T) {
	drafts, _ := newDraftManager()
	ctx := context.Background()

	_, err := handleDraftReply(ctx, request(map[string]any{
		"conversationId": "c1",
		"messageId":      "m1",
	}), drafts)
	require.NoError(t, err)

	result, err := handleDraftRegenerate(ctx, request(map[string]any{
		"conversationId": "c1",
		"instructions":   "make it formal",
	}), drafts)
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "generated reply [make it formal]")
}

func TestHandleDraftCancel(t *testing.T) {
	drafts, _ := newDraftManager()
	ctx := context.Background()

	_, err := handleDraftReply(ctx, request(map[string]any{
		"conversationId": "c1",
		"messageId":      "m1",
	}), drafts)
	require.NoError(t, err)

	result, err := handleDraftCancel(ctx, request(map[string]any{
		"conversationId": "c1",
	}), drafts)
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Draft discarded")

	result, err = handleDraftCancel(ctx, request(map[string]any{
		"conversationId": "c1",
	}), drafts)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

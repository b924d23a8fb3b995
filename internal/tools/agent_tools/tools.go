package agent_tools

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxtriage/internal/agent"
	"github.com/teemow/inboxtriage/internal/draft"
)

// RegisterAgentTools registers the lifecycle tools with the MCP server.
func RegisterAgentTools(s *mcpserver.MCPServer, controller *agent.Controller) error {
	startTool := mcp.NewTool("triage_agent_start",
		mcp.WithDescription("Start the background email triage agent"),
		mcp.WithString("mode",
			mcp.Description("Startup mode: 'monitor' (default) polls for unread mail, 'backfill' first sweeps a wider window of read and unread mail"),
		),
	)

	s.AddTool(startTool, func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleAgentStart(request, controller)
	})

	stopTool := mcp.NewTool("triage_agent_stop",
		mcp.WithDescription("Stop the background email triage agent"),
	)

	s.AddTool(stopTool, func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleAgentStop(controller)
	})

	statusTool := mcp.NewTool("triage_agent_status",
		mcp.WithDescription("Get the triage agent's current state and last run time"),
	)

	s.AddTool(statusTool, func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleAgentStatus(controller)
	})

	return nil
}

func handleAgentStart(request mcp.CallToolRequest, controller *agent.Controller) (*mcp.CallToolResult, error) {
	mode := agent.ModeMonitor
	if modeVal, ok := request.GetArguments()["mode"].(string); ok && modeVal != "" {
		mode = agent.Mode(modeVal)
	}

	if err := controller.Start(mode); err != nil {
		if errors.Is(err, agent.ErrAlreadyRunning) {
			return mcp.NewToolResultError("Agent is already running"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to start agent: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Agent started in %s mode", mode)), nil
}

func handleAgentStop(controller *agent.Controller) (*mcp.CallToolResult, error) {
	if err := controller.Stop(); err != nil {
		if errors.Is(err, agent.ErrNotRunning) {
			return mcp.NewToolResultError("Agent is not running"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to stop agent: %v", err)), nil
	}

	return mcp.NewToolResultText("Agent stopping; it will exit after the current cycle"), nil
}

func handleAgentStatus(controller *agent.Controller) (*mcp.CallToolResult, error) {
	st := controller.Status()

	lastRun := "never"
	if !st.LastRun.IsZero() {
		lastRun = st.LastRun.Format("2006-01-02 15:04:05")
	}

	return mcp.NewToolResultText(fmt.Sprintf("State: %s\nLast run: %s", st.State, lastRun)), nil
}

// RegisterDraftTools registers the draft workflow tools with the MCP server.
// Conversations are keyed by the caller-supplied conversationId so an MCP
// client can hold several draft workflows at once.
func RegisterDraftTools(s *mcpserver.MCPServer, drafts *draft.Manager) error {
	replyTool := mcp.NewTool("triage_draft_reply",
		mcp.WithDescription("Generate a draft reply for an email message"),
		mcp.WithString("conversationId",
			mcp.Required(),
			mcp.Description("Conversation identifier that scopes this draft workflow"),
		),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The Gmail message ID to reply to"),
		),
	)

	s.AddTool(replyTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleDraftReply(ctx, request, drafts)
	})

	sendTool := mcp.NewTool("triage_draft_send",
		mcp.WithDescription("Send the current draft reply"),
		mcp.WithString("conversationId",
			mcp.Required(),
			mcp.Description("Conversation identifier of the draft workflow"),
		),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The Gmail message ID the draft was created for; a mismatch means the draft was replaced"),
		),
	)

	s.AddTool(sendTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleDraftSend(ctx, request, drafts)
	})

	editTool := mcp.NewTool("triage_draft_edit",
		mcp.WithDescription("Replace the draft body with caller-provided text"),
		mcp.WithString("conversationId",
			mcp.Required(),
			mcp.Description("Conversation identifier of the draft workflow"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("The full replacement body text"),
		),
	)

	s.AddTool(editTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleDraftEdit(ctx, request, drafts)
	})

	regenerateTool := mcp.NewTool("triage_draft_regenerate",
		mcp.WithDescription("Regenerate the draft from the original message with new instructions"),
		mcp.WithString("conversationId",
			mcp.Required(),
			mcp.Description("Conversation identifier of the draft workflow"),
		),
		mcp.WithString("instructions",
			mcp.Required(),
			mcp.Description("Refinement instructions for the new draft"),
		),
	)

	s.AddTool(regenerateTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleDraftRegenerate(ctx, request, drafts)
	})

	cancelTool := mcp.NewTool("triage_draft_cancel",
		mcp.WithDescription("Discard the current draft"),
		mcp.WithString("conversationId",
			mcp.Required(),
			mcp.Description("Conversation identifier of the draft workflow"),
		),
	)

	s.AddTool(cancelTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleDraftCancel(ctx, request, drafts)
	})

	return nil
}

func requiredString(request mcp.CallToolRequest, key string) (string, error) {
	val, ok := request.GetArguments()[key].(string)
	if !ok || val == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return val, nil
}

func handleDraftReply(ctx context.Context, request mcp.CallToolRequest, drafts *draft.Manager) (*mcp.CallToolResult, error) {
	conv, err := requiredString(request, "conversationId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	messageID, err := requiredString(request, "messageId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, err := drafts.Reply(ctx, conv, messageID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to generate draft: %v", err)), nil
	}

	return mcp.NewToolResultText(formatDraft(d)), nil
}

func handleDraftSend(ctx context.Context, request mcp.CallToolRequest, drafts *draft.Manager) (*mcp.CallToolResult, error) {
	conv, err := requiredString(request, "conversationId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	messageID, err := requiredString(request, "messageId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	switch err := drafts.Send(ctx, conv, messageID); {
	case errors.Is(err, draft.ErrDraftExpired):
		return mcp.NewToolResultError("Draft expired: it was replaced by a newer draft"), nil
	case errors.Is(err, draft.ErrNoDraft):
		return mcp.NewToolResultError("No active draft for this conversation"), nil
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send reply: %v", err)), nil
	}

	return mcp.NewToolResultText("Reply sent"), nil
}

func handleDraftEdit(ctx context.Context, request mcp.CallToolRequest, drafts *draft.Manager) (*mcp.CallToolResult, error) {
	conv, err := requiredString(request, "conversationId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := requiredString(request, "body")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Arm the edit slot and feed the body through the same path the chat
	// surface uses, so both surfaces share one set of transition rules.
	if err := drafts.Edit(ctx, conv); err != nil {
		return mcp.NewToolResultError("No active draft for this conversation"), nil
	}
	d, _, err := drafts.FreeText(ctx, conv, body)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to edit draft: %v", err)), nil
	}

	return mcp.NewToolResultText(formatDraft(d)), nil
}

func handleDraftRegenerate(ctx context.Context, request mcp.CallToolRequest, drafts *draft.Manager) (*mcp.CallToolResult, error) {
	conv, err := requiredString(request, "conversationId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	instructions, err := requiredString(request, "instructions")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := drafts.Regenerate(ctx, conv); err != nil {
		return mcp.NewToolResultError("No active draft for this conversation"), nil
	}
	d, _, err := drafts.FreeText(ctx, conv, instructions)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to regenerate draft: %v", err)), nil
	}

	return mcp.NewToolResultText(formatDraft(d)), nil
}

func handleDraftCancel(ctx context.Context, request mcp.CallToolRequest, drafts *draft.Manager) (*mcp.CallToolResult, error) {
	conv, err := requiredString(request, "conversationId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := drafts.Cancel(ctx, conv); err != nil {
		return mcp.NewToolResultError("No active draft for this conversation"), nil
	}

	return mcp.NewToolResultText("Draft discarded"), nil
}

func formatDraft(d *draft.Draft) string {
	return "To: " + d.Recipient + "\n" +
		"Subject: " + d.Subject + "\n" +
		"Message ID: " + d.MessageID + "\n\n" +
		d.Body + "\n\n" +
		"(body length: " + strconv.Itoa(len(d.Body)) + " characters)"
}

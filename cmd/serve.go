package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/inboxtriage/internal/agent"
	"github.com/teemow/inboxtriage/internal/classify"
	"github.com/teemow/inboxtriage/internal/config"
	"github.com/teemow/inboxtriage/internal/draft"
	"github.com/teemow/inboxtriage/internal/gmail"
	"github.com/teemow/inboxtriage/internal/oracle"
	"github.com/teemow/inboxtriage/internal/taxonomy"
	"github.com/teemow/inboxtriage/internal/tools/agent_tools"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server over stdio. The server
exposes the agent lifecycle (start, stop, status) and the draft reply
workflow (reply, send, edit, regenerate, cancel) as tools for AI
assistants.

Telegram is not wired in this mode; important classifications are labeled
but not announced.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
	return cmd
}

func runServe() error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := config.FromEnv()
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("GOOGLE_API_KEY is required")
	}

	logger := newLogger()

	gmailClient, err := gmail.NewClient(shutdownCtx)
	if err != nil {
		return fmt.Errorf("failed to create Gmail client: %w", err)
	}

	gemini, err := oracle.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}

	pipeline := classify.New(gmailClient, gemini, nil,
		taxonomy.NewSet(taxonomy.DefaultImportant), logger, nil)

	controller := agent.New(pipeline, agent.Config{
		PollInterval: cfg.PollInterval,
		Monitor: classify.Pass{
			Hours:      cfg.MonitorLookbackHours,
			MaxResults: cfg.MonitorMaxResults,
			UnreadOnly: true,
		},
		Backfill: classify.Pass{
			Hours:      cfg.BackfillLookbackHours,
			MaxResults: cfg.BackfillMaxResults,
			UnreadOnly: false,
		},
	}, logger, nil)

	drafts := draft.NewManager(gmailClient, gemini, logger, nil)

	mcpSrv := mcpserver.NewMCPServer("inboxtriage", version,
		mcpserver.WithToolCapabilities(true),
	)

	if err := agent_tools.RegisterAgentTools(mcpSrv, controller); err != nil {
		return fmt.Errorf("failed to register agent tools: %w", err)
	}
	if err := agent_tools.RegisterDraftTools(mcpSrv, drafts); err != nil {
		return fmt.Errorf("failed to register draft tools: %w", err)
	}

	return runStdioServer(shutdownCtx, mcpSrv, controller)
}

func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, controller *agent.Controller) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	var err error
	select {
	case err = <-serverDone:
	case <-ctx.Done():
	}

	// A worker started via the tools keeps running until asked to stop.
	if stopErr := controller.Stop(); stopErr == nil {
		if done := controller.Done(); done != nil {
			<-done
		}
	}

	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxtriage/internal/classify"
	"github.com/teemow/inboxtriage/internal/config"
	"github.com/teemow/inboxtriage/internal/gmail"
	"github.com/teemow/inboxtriage/internal/oracle"
	"github.com/teemow/inboxtriage/internal/taxonomy"
)

func newRunCmd() *cobra.Command {
	var (
		hours      int
		maxResults int
		unreadOnly bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single triage pass over recent mail",
		Long: `Fetch recent messages from Gmail, classify each one with Gemini, and
apply the matching category label. Runs once and exits; no Telegram
notifications are sent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			if cfg.GeminiAPIKey == "" {
				return fmt.Errorf("GOOGLE_API_KEY is required")
			}

			ctx := context.Background()
			logger := newLogger()

			client, err := gmail.NewClient(ctx)
			if err != nil {
				return fmt.Errorf("failed to create Gmail client: %w", err)
			}

			gemini, err := oracle.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel)
			if err != nil {
				return fmt.Errorf("failed to create Gemini client: %w", err)
			}

			pipeline := classify.New(client, gemini, nil,
				taxonomy.NewSet(taxonomy.DefaultImportant), logger, nil)

			pass := classify.Pass{
				Hours:      hours,
				MaxResults: maxResults,
				UnreadOnly: unreadOnly,
			}
			if err := pipeline.Run(ctx, pass); err != nil {
				return fmt.Errorf("triage pass failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&hours, "hours", config.DefaultBackfillLookbackHours, "How many hours back to scan")
	cmd.Flags().IntVar(&maxResults, "max-results", config.DefaultBackfillMaxResults, "Maximum number of messages to process")
	cmd.Flags().BoolVar(&unreadOnly, "unread-only", false, "Only consider unread messages")
	return cmd
}

// newLogger builds the process-wide structured logger. Commands log JSON to
// stderr so stdout stays free for command output and MCP stdio framing.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, nil))
}

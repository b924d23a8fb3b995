package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxtriage/internal/agent"
	"github.com/teemow/inboxtriage/internal/classify"
	"github.com/teemow/inboxtriage/internal/config"
	"github.com/teemow/inboxtriage/internal/draft"
	"github.com/teemow/inboxtriage/internal/gmail"
	"github.com/teemow/inboxtriage/internal/instrumentation"
	"github.com/teemow/inboxtriage/internal/oracle"
	"github.com/teemow/inboxtriage/internal/rate"
	"github.com/teemow/inboxtriage/internal/server"
	"github.com/teemow/inboxtriage/internal/taxonomy"
	"github.com/teemow/inboxtriage/internal/telegram"
)

// notifyRatePerMinute caps outbound Telegram notifications so a large
// backfill sweep cannot flood the chat.
const notifyRatePerMinute = 20

func newAgentCmd() *cobra.Command {
	var (
		mode        string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Run the triage agent with Telegram and HTTP control surfaces",
		Long: `Start the long-running triage agent. The agent polls Gmail for new mail,
classifies each message with Gemini, applies category labels, and announces
important messages in the configured Telegram chat.

The agent exposes two control surfaces:
  - The Telegram bot (/start, /stop, /status, and draft reply actions)
  - An HTTP control API (POST /agent/start, POST /agent/stop, GET /agent/status)

Use --mode to choose whether polling starts immediately:
  - monitor:  start polling right away (default)
  - backfill: sweep a wide window of recent mail first, then poll
  - none:     stay stopped until a control surface starts the agent`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(mode, metricsAddr)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(agent.ModeMonitor), "Initial agent mode: monitor, backfill, or none")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Address for the Prometheus metrics server")
	return cmd
}

func runAgent(mode, metricsAddr string) error {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.APIToken == "" {
		return fmt.Errorf("API_TOKEN is required")
	}
	chatID, err := parseChatID(cfg.TelegramChatID)
	if err != nil {
		return err
	}
	if mode != "none" && mode != string(agent.ModeMonitor) && mode != string(agent.ModeBackfill) {
		return fmt.Errorf("invalid mode %q (expected monitor, backfill, or none)", mode)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := newLogger()

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer shutdownCancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("instrumentation shutdown failed", "error", err)
		}
	}()
	metrics := provider.Metrics()

	gmailClient, err := gmail.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create Gmail client: %w", err)
	}

	gemini, err := oracle.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}

	tgClient, err := telegram.NewClient(cfg.TelegramBotToken)
	if err != nil {
		return fmt.Errorf("failed to create Telegram client: %w", err)
	}

	notifyLimiter := rate.NewTokenBucket(notifyRatePerMinute, time.Minute)
	defer notifyLimiter.Stop()
	notifier := telegram.NewNotifier(tgClient, chatID, notifyLimiter, logger)

	pipeline := classify.New(gmailClient, gemini, notifier,
		taxonomy.NewSet(taxonomy.DefaultImportant), logger, metrics)

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
	}, logger, metrics)

	drafts := draft.NewManager(gmailClient, gemini, logger, metrics)

	botLimiter := rate.NewTokenBucket(cfg.ControlRatePerMinute, time.Minute)
	defer botLimiter.Stop()
	bot := telegram.NewBot(tgClient, chatID, controller, drafts, botLimiter, logger)
	go func() {
		if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("telegram bot stopped", "error", err)
		}
	}()

	apiLimiter := rate.NewTokenBucket(cfg.ControlRatePerMinute, time.Minute)
	defer apiLimiter.Stop()
	health := server.NewHealthChecker()
	control := server.NewControlServer(controller, health, server.ControlConfig{
		Addr:    cfg.APIAddr,
		Token:   cfg.APIToken,
		Limiter: apiLimiter,
	}, logger, metrics)
	go func() {
		if err := control.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("control server failed", "error", err)
			cancel()
		}
	}()

	var metricsServer *server.MetricsServer
	if provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsAddr,
			Enabled:                 true,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	if mode != "none" {
		if err := controller.Start(agent.Mode(mode)); err != nil {
			return fmt.Errorf("failed to start agent: %w", err)
		}
	}

	health.SetReady(true)
	logger.Info("triage agent running",
		"mode", mode, "api_addr", cfg.APIAddr, "poll_interval", cfg.PollInterval.String())

	<-ctx.Done()

	logger.Info("shutting down")
	health.SetShuttingDown()

	if err := controller.Stop(); err != nil && !errors.Is(err, agent.ErrNotRunning) {
		logger.Error("agent stop failed", "error", err)
	}
	if done := controller.Done(); done != nil {
		select {
		case <-done:
		case <-time.After(server.DefaultShutdownTimeout):
			logger.Warn("timed out waiting for worker to stop")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer shutdownCancel()
	if err := control.Shutdown(shutdownCtx); err != nil {
		logger.Error("control server shutdown failed", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown failed", "error", err)
		}
	}

	return nil
}

// parseChatID parses the configured Telegram chat id. Telegram chat ids are
// signed 64-bit integers; group chats are negative.
func parseChatID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("TELEGRAM_CHAT_ID must be an integer, got %q", s)
	}
	return id, nil
}

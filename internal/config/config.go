package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults for the triage agent.
const (
	DefaultGeminiModel = "gemini-2.5-flash"

	DefaultPollInterval = 5 * time.Minute

	// Monitor passes are narrow: short lookback, unread only.
	DefaultMonitorLookbackHours = 1
	DefaultMonitorMaxResults    = 10

	// Backfill passes are wide: long lookback, read and unread.
	DefaultBackfillLookbackHours = 24
	DefaultBackfillMaxResults    = 50

	DefaultAPIAddr = ":8080"

	// DefaultControlRatePerMinute limits start/stop commands per control surface.
	DefaultControlRatePerMinute = 5
)

// Config holds the runtime configuration for the triage agent.
// All values can be set via environment variables.
type Config struct {
	// GeminiAPIKey authenticates calls to the Gemini API (GOOGLE_API_KEY).
	// Required for classification and draft generation.
	GeminiAPIKey string

	// GeminiModel is the model used for classification and drafts (GEMINI_MODEL).
	GeminiModel string

	// TelegramBotToken authenticates the Telegram bot (TELEGRAM_BOT_TOKEN).
	TelegramBotToken string

	// TelegramChatID is the single allow-listed operator chat (TELEGRAM_CHAT_ID).
	// Commands and callbacks from any other chat are rejected.
	TelegramChatID string

	// PollInterval is the idle period between monitor passes (AGENT_POLL_INTERVAL).
	PollInterval time.Duration

	// MonitorLookbackHours and MonitorMaxResults shape the narrow monitor pass.
	MonitorLookbackHours int
	MonitorMaxResults    int

	// BackfillLookbackHours and BackfillMaxResults shape the one-time backfill pass.
	BackfillLookbackHours int
	BackfillMaxResults    int

	// APIAddr is the bind address of the HTTP control API (API_ADDR).
	APIAddr string

	// APIToken is the bearer token the HTTP control API requires (API_TOKEN).
	// The API refuses to start without one.
	APIToken string

	// ControlRatePerMinute rate-limits control commands per surface
	// (CONTROL_RATE_LIMIT).
	ControlRatePerMinute int
}

// FromEnv builds a Config from environment variables, applying defaults for
// anything unset. It does not validate; call Validate before use.
func FromEnv() Config {
	cfg := Config{
		GeminiAPIKey:          os.Getenv("GOOGLE_API_KEY"),
		GeminiModel:           envString("GEMINI_MODEL", DefaultGeminiModel),
		TelegramBotToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:        os.Getenv("TELEGRAM_CHAT_ID"),
		PollInterval:          envDuration("AGENT_POLL_INTERVAL", DefaultPollInterval),
		MonitorLookbackHours:  envInt("MONITOR_LOOKBACK_HOURS", DefaultMonitorLookbackHours),
		MonitorMaxResults:     envInt("MONITOR_MAX_RESULTS", DefaultMonitorMaxResults),
		BackfillLookbackHours: envInt("BACKFILL_LOOKBACK_HOURS", DefaultBackfillLookbackHours),
		BackfillMaxResults:    envInt("BACKFILL_MAX_RESULTS", DefaultBackfillMaxResults),
		APIAddr:               envString("API_ADDR", DefaultAPIAddr),
		APIToken:              os.Getenv("API_TOKEN"),
		ControlRatePerMinute:  envInt("CONTROL_RATE_LIMIT", DefaultControlRatePerMinute),
	}
	return cfg
}

// Validate checks that everything the agent cannot run without is present.
// A missing credential here is startup-fatal: the worker is never started and
// the error is reported once, with no retry.
func (c Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GOOGLE_API_KEY is required")
	}
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.TelegramChatID == "" {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.MonitorLookbackHours <= 0 || c.BackfillLookbackHours <= 0 {
		return fmt.Errorf("lookback hours must be positive")
	}
	if c.MonitorMaxResults <= 0 || c.BackfillMaxResults <= 0 {
		return fmt.Errorf("max results must be positive")
	}
	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

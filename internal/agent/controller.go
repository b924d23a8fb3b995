package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teemow/inboxtriage/internal/classify"
	"github.com/teemow/inboxtriage/internal/instrumentation"
	"github.com/teemow/inboxtriage/internal/logging"
)

// Mode selects the worker's startup behavior.
type Mode string

const (
	// ModeMonitor polls for unread mail at the configured interval.
	ModeMonitor Mode = "monitor"

	// ModeBackfill first sweeps a wider window of read and unread mail,
	// then continues into the monitor loop.
	ModeBackfill Mode = "backfill"
)

// State is the controller's lifecycle state. The only legal transitions are
// Stopped -> Running -> Stopping -> Stopped.
type State string

const (
	StateStopped  State = "stopped"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

var (
	// ErrAlreadyRunning is returned by Start when a live worker exists.
	ErrAlreadyRunning = errors.New("already running")

	// ErrNotRunning is returned by Stop when no live worker exists.
	ErrNotRunning = errors.New("not running")
)

// tickInterval bounds shutdown latency: the idle sleep between passes checks
// for cancellation at this granularity rather than sleeping the full interval.
const tickInterval = time.Second

// Runner runs one classification pass. *classify.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, pass classify.Pass) error
}

// Config holds the worker's pass windows and cadence.
type Config struct {
	// PollInterval is the idle period between monitor passes.
	PollInterval time.Duration

	// Monitor is the narrow, unread-only pass run every interval.
	Monitor classify.Pass

	// Backfill is the wide, read-and-unread pass run once at startup in
	// backfill mode.
	Backfill classify.Pass
}

// Status is a point-in-time view of the controller.
type Status struct {
	State   State     `json:"state"`
	LastRun time.Time `json:"last_run,omitzero"`
}

// Controller owns the single background triage worker. At most one worker is
// alive per Controller at any time; Start, Stop, and Status may be called
// concurrently from any control surface.
type Controller struct {
	runner  Runner
	config  Config
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	mu      sync.Mutex
	state   State
	lastRun time.Time
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a stopped controller. metrics may be nil.
func New(runner Runner, config Config, logger *slog.Logger, metrics *instrumentation.Metrics) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		runner:  runner,
		config:  config,
		logger:  logging.WithComponent(logger, "agent"),
		metrics: metrics,
		state:   StateStopped,
	}
}

// Start spawns the background worker in the given mode. It fails with
// ErrAlreadyRunning if a live worker exists. Liveness is probed via the
// worker's done channel, so a worker that exited on its own never blocks a
// restart regardless of the stored state.
func (c *Controller) Start(mode Mode) error {
	if mode != ModeMonitor && mode != ModeBackfill {
		return fmt.Errorf("invalid mode %q", mode)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.workerAlive() {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.cancel = cancel
	c.done = done
	c.state = StateRunning

	c.logger.Info("agent started", logging.Mode(string(mode)))

	go c.worker(ctx, mode, done)

	return nil
}

// Stop signals the worker to shut down. It does not wait for the worker to
// finish; the worker records StateStopped itself on exit.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.workerAlive() {
		return ErrNotRunning
	}

	c.cancel()
	c.state = StateStopping
	c.logger.Info("agent stopping")

	return nil
}

// Status returns the current state and the start time of the most recent
// pass. The read reconciles: a stored Running state with a dead worker is
// corrected to Stopped before returning.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateRunning && !c.workerAlive() {
		c.state = StateStopped
	}

	return Status{State: c.state, LastRun: c.lastRun}
}

// Done returns a channel that is closed when the current worker exits, or nil
// if no worker was ever started. Intended for shutdown sequencing.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// workerAlive reports whether the current worker goroutine is still running.
// Callers must hold c.mu.
func (c *Controller) workerAlive() bool {
	if c.done == nil {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

func (c *Controller) worker(ctx context.Context, mode Mode, done chan struct{}) {
	defer close(done)
	defer func() {
		c.mu.Lock()
		c.state = StateStopped
		c.mu.Unlock()
		c.logger.Info("agent stopped", logging.Mode(string(mode)))
	}()

	c.markRun()

	if mode == ModeBackfill {
		// The backfill sweep is best-effort: a failure is logged and the
		// worker continues into the monitor loop.
		if err := c.runner.Run(ctx, c.config.Backfill); err != nil {
			c.logger.Warn("backfill pass failed",
				logging.Mode(string(ModeBackfill)),
				logging.Err(err))
			c.metrics.RecordTriageCycle(ctx, string(ModeBackfill), instrumentation.StatusError)
		} else {
			c.metrics.RecordTriageCycle(ctx, string(ModeBackfill), instrumentation.StatusSuccess)
		}
		if ctx.Err() != nil {
			return
		}
	}

	for {
		if ctx.Err() != nil {
			return
		}

		c.markRun()
		if err := c.runner.Run(ctx, c.config.Monitor); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("monitor pass failed", logging.Err(err))
			c.metrics.RecordTriageCycle(ctx, string(ModeMonitor), instrumentation.StatusError)
		} else {
			c.metrics.RecordTriageCycle(ctx, string(ModeMonitor), instrumentation.StatusSuccess)
		}

		if !c.sleep(ctx, c.config.PollInterval) {
			return
		}
	}
}

// markRun records the start of a pass.
func (c *Controller) markRun() {
	c.mu.Lock()
	c.lastRun = time.Now()
	c.mu.Unlock()
}

// sleep waits for the given duration in short increments, re-checking the
// cancellation signal each increment. It returns false when canceled.
func (c *Controller) sleep(ctx context.Context, d time.Duration) bool {
	deadline := time.Now().Add(d)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return true
		}
		tick := tickInterval
		if remaining < tick {
			tick = remaining
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(tick):
		}
	}
}

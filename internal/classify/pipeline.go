package classify

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/teemow/inboxtriage/internal/gmail"
	"github.com/teemow/inboxtriage/internal/instrumentation"
	"github.com/teemow/inboxtriage/internal/logging"
	"github.com/teemow/inboxtriage/internal/oracle"
	"github.com/teemow/inboxtriage/internal/taxonomy"
)

// Notifier receives classifications whose category is in the importance set.
// Delivery failures stay inside the notifier; they never abort the batch.
type Notifier interface {
	NotifyImportant(ctx context.Context, msg *gmail.Message, category taxonomy.Key) error
}

// Result binds a message to exactly one resolved category and its label name.
type Result struct {
	Message  *gmail.Message
	Category taxonomy.Key
	Label    string
}

// Pass describes one fetch-and-classify sweep over the inbox.
type Pass struct {
	Hours      int
	MaxResults int
	UnreadOnly bool
}

// Pipeline turns batches of messages into labeled, notified outcomes.
type Pipeline struct {
	gateway   gmail.Gateway
	oracle    oracle.Oracle
	notifier  Notifier
	important taxonomy.Set
	logger    *slog.Logger
	metrics   *instrumentation.Metrics
}

// New creates a classification pipeline. notifier may be nil, in which case
// important classifications are labeled but not announced. metrics may be nil.
func New(gateway gmail.Gateway, o oracle.Oracle, notifier Notifier, important taxonomy.Set, logger *slog.Logger, metrics *instrumentation.Metrics) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		gateway:   gateway,
		oracle:    o,
		notifier:  notifier,
		important: important,
		logger:    logging.WithComponent(logger, "classify"),
		metrics:   metrics,
	}
}

// Run performs one pass: fetch messages for the window and process them.
func (p *Pipeline) Run(ctx context.Context, pass Pass) error {
	msgs, err := p.gateway.FetchSince(ctx, pass.Hours, pass.MaxResults, pass.UnreadOnly)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		p.logger.Debug("no messages to process", slog.Int("lookback_hours", pass.Hours))
		return nil
	}

	p.logger.Info("processing messages",
		slog.Int("count", len(msgs)),
		slog.Int("lookback_hours", pass.Hours),
		slog.Bool("unread_only", pass.UnreadOnly))

	p.ProcessBatch(ctx, msgs)
	return nil
}

// ProcessBatch classifies, labels, and notifies for each message in fetch
// order. A single message's failure at any step is logged and skipped; the
// rest of the batch continues.
func (p *Pipeline) ProcessBatch(ctx context.Context, msgs []*gmail.Message) []Result {
	results := make([]Result, 0, len(msgs))

	for _, msg := range msgs {
		res, err := p.processOne(ctx, msg)
		if err != nil {
			p.logger.Warn("message skipped",
				logging.MessageID(msg.ID),
				logging.SenderHash(msg.Sender),
				logging.Err(err))
			p.metrics.RecordClassification(ctx, "", instrumentation.StatusError)
			continue
		}
		results = append(results, res)
	}
	return results
}

func (p *Pipeline) processOne(ctx context.Context, msg *gmail.Message) (Result, error) {
	// Only the subject and the short preview go to the oracle, never the body.
	start := time.Now()
	raw, err := p.oracle.Classify(ctx, taxonomy.Keys(), msg.Subject, msg.Snippet)
	if err != nil {
		p.metrics.RecordOracleCall(ctx, "classify", time.Since(start), instrumentation.StatusError)
		return Result{}, err
	}
	p.metrics.RecordOracleCall(ctx, "classify", time.Since(start), instrumentation.StatusSuccess)

	category := resolveCategory(raw)
	label := taxonomy.Label(category)

	p.logger.Info("message classified",
		logging.MessageID(msg.ID),
		logging.Category(string(category)),
		slog.String("label", label))
	p.metrics.RecordClassification(ctx, string(category), instrumentation.StatusSuccess)

	if err := p.applyLabel(ctx, msg, label); err != nil {
		// Labeling is best-effort per message; the notification below still
		// fires so the operator hears about important mail.
		p.logger.Warn("failed to apply label",
			logging.MessageID(msg.ID),
			slog.String("label", label),
			logging.Err(err))
	}

	if p.notifier != nil && p.important.Contains(category) {
		if err := p.notifier.NotifyImportant(ctx, msg, category); err != nil {
			p.logger.Warn("notification failed",
				logging.MessageID(msg.ID),
				logging.Category(string(category)),
				logging.Err(err))
		} else {
			p.metrics.RecordNotification(ctx, string(category))
		}
	}

	return Result{Message: msg, Category: category, Label: label}, nil
}

func (p *Pipeline) applyLabel(ctx context.Context, msg *gmail.Message, label string) error {
	labelID, err := p.gateway.EnsureLabel(ctx, label)
	if err != nil {
		return err
	}
	if err := p.gateway.ApplyLabel(ctx, msg.ID, labelID); err != nil {
		return err
	}
	p.metrics.RecordLabelApplied(ctx, label)
	return nil
}

// resolveCategory maps raw oracle output onto the closed taxonomy.
// The normalized output must match a key exactly; failing that, if it merely
// mentions taxonomy keys, the highest-priority mention wins. Anything else
// falls back to Uncategorized.
func resolveCategory(raw string) taxonomy.Key {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return taxonomy.Uncategorized
	}

	if _, ok := taxonomy.Lookup(taxonomy.Key(normalized)); ok {
		return taxonomy.Key(normalized)
	}

	// Priority tie-break over mentioned keys. Keys() is priority-ordered, so
	// the first hit is the winner.
	for _, k := range taxonomy.Keys() {
		if strings.Contains(normalized, string(k)) {
			return k
		}
	}

	return taxonomy.Uncategorized
}

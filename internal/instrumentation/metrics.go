package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys - using constants for consistency.
const (
	attrCategory  = "category"
	attrStatus    = "status"
	attrLabel     = "label"
	attrMode      = "mode"
	attrOperation = "operation"
	attrAction    = "action"
	attrMethod    = "method"
	attrPath      = "path"
)

// Metrics provides methods for recording observability metrics.
// A nil *Metrics is a valid no-op recorder, so call sites never need to
// guard against missing instrumentation.
type Metrics struct {
	// Triage pipeline metrics
	messagesClassified metric.Int64Counter
	labelsApplied      metric.Int64Counter
	notificationsSent  metric.Int64Counter
	triageCycles       metric.Int64Counter

	// Oracle metrics
	oracleCallsTotal   metric.Int64Counter
	oracleCallDuration metric.Float64Histogram

	// Draft state machine metrics
	draftTransitions metric.Int64Counter

	// HTTP control API metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.messagesClassified, err = meter.Int64Counter(
		"triage_messages_classified_total",
		metric.WithDescription("Total number of messages run through the classification pipeline"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create triage_messages_classified_total counter: %w", err)
	}

	m.labelsApplied, err = meter.Int64Counter(
		"triage_labels_applied_total",
		metric.WithDescription("Total number of Gmail labels applied"),
		metric.WithUnit("{label}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create triage_labels_applied_total counter: %w", err)
	}

	m.notificationsSent, err = meter.Int64Counter(
		"triage_notifications_sent_total",
		metric.WithDescription("Total number of importance notifications delivered"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create triage_notifications_sent_total counter: %w", err)
	}

	m.triageCycles, err = meter.Int64Counter(
		"triage_cycles_total",
		metric.WithDescription("Total number of triage passes by mode and status"),
		metric.WithUnit("{cycle}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create triage_cycles_total counter: %w", err)
	}

	m.oracleCallsTotal, err = meter.Int64Counter(
		"oracle_calls_total",
		metric.WithDescription("Total number of language-model oracle calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create oracle_calls_total counter: %w", err)
	}

	m.oracleCallDuration, err = meter.Float64Histogram(
		"oracle_call_duration_seconds",
		metric.WithDescription("Language-model oracle call duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create oracle_call_duration_seconds histogram: %w", err)
	}

	m.draftTransitions, err = meter.Int64Counter(
		"draft_transitions_total",
		metric.WithDescription("Total number of draft state machine transitions by action and status"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create draft_transitions_total counter: %w", err)
	}

	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP control API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP control API request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordClassification records one message passing through the pipeline.
// category may be empty when classification itself failed.
func (m *Metrics) RecordClassification(ctx context.Context, category, status string) {
	if m == nil || m.messagesClassified == nil {
		return
	}
	m.messagesClassified.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrCategory, category),
		attribute.String(attrStatus, status),
	))
}

// RecordLabelApplied records a successful label application.
func (m *Metrics) RecordLabelApplied(ctx context.Context, label string) {
	if m == nil || m.labelsApplied == nil {
		return
	}
	m.labelsApplied.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrLabel, label),
	))
}

// RecordNotification records a delivered importance notification.
func (m *Metrics) RecordNotification(ctx context.Context, category string) {
	if m == nil || m.notificationsSent == nil {
		return
	}
	m.notificationsSent.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrCategory, category),
	))
}

// RecordTriageCycle records one completed triage pass.
func (m *Metrics) RecordTriageCycle(ctx context.Context, mode, status string) {
	if m == nil || m.triageCycles == nil {
		return
	}
	m.triageCycles.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrMode, mode),
		attribute.String(attrStatus, status),
	))
}

// RecordOracleCall records one oracle invocation with its duration.
func (m *Metrics) RecordOracleCall(ctx context.Context, operation string, duration time.Duration, status string) {
	if m == nil || m.oracleCallsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.oracleCallsTotal.Add(ctx, 1, attrs)
	m.oracleCallDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordDraftTransition records one draft state machine transition.
func (m *Metrics) RecordDraftTransition(ctx context.Context, action, status string) {
	if m == nil || m.draftTransitions == nil {
		return
	}
	m.draftTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrAction, action),
		attribute.String(attrStatus, status),
	))
}

// RecordHTTPRequest records one control API request.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.Int(attrStatus, statusCode),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

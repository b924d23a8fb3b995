// Package instrumentation provides OpenTelemetry instrumentation for the
// inboxtriage service.
//
// This package enables production-grade observability through:
//   - OpenTelemetry metrics for the triage pipeline, oracle calls, and the control API
//   - Distributed tracing for triage passes and oracle calls
//   - Prometheus metrics export via the /metrics endpoint
//   - OTLP export support for modern observability platforms
//
// # Metrics
//
// The package exposes the following metric categories:
//
// Triage Pipeline Metrics:
//   - triage_messages_classified_total: Counter of classified messages by category and status
//   - triage_labels_applied_total: Counter of applied Gmail labels
//   - triage_notifications_sent_total: Counter of importance notifications by category
//   - triage_cycles_total: Counter of triage passes by mode and status
//
// Oracle Metrics:
//   - oracle_calls_total: Counter of language-model calls by operation and status
//   - oracle_call_duration_seconds: Histogram of language-model call durations
//
// Draft Workflow Metrics:
//   - draft_transitions_total: Counter of draft state machine transitions by action
//
// Control API Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// # Configuration
//
// Instrumentation is configured via environment variables:
//   - INSTRUMENTATION_ENABLED: enable or disable all telemetry (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP collector endpoint
//   - OTEL_TRACES_SAMPLER_ARG: trace sampling rate (default: 0.1)
//
// A nil *Metrics recorder is valid and records nothing, so components can
// hold one unconditionally.
package instrumentation

package instrumentation

import (
	"context"
	"testing"
)

func TestNewProviderDisabled(t *testing.T) {
	ctx := context.Background()

	config := Config{
		ServiceName: "test",
		Enabled:     false,
	}

	provider, err := NewProvider(ctx, config)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	if provider.Enabled() {
		t.Error("expected provider to be disabled")
	}

	if provider.Metrics() == nil {
		t.Error("expected a no-op metrics recorder, got nil")
	}

	// Tracer must still be usable when disabled.
	tracer := provider.Tracer("test")
	if tracer == nil {
		t.Error("expected a no-op tracer, got nil")
	}

	if err := provider.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNewProviderPrometheus(t *testing.T) {
	ctx := context.Background()

	config := Config{
		ServiceName:       "test",
		ServiceVersion:    "0.0.1",
		Enabled:           true,
		MetricsExporter:   ExporterPrometheus,
		TracingExporter:   ExporterNone,
		TraceSamplingRate: 0.1,
	}

	provider, err := NewProvider(ctx, config)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	defer func() {
		if err := provider.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
	}()

	if !provider.Enabled() {
		t.Error("expected provider to be enabled")
	}

	if provider.Metrics() == nil {
		t.Error("expected metrics recorder")
	}

	if !provider.PrometheusHandler() {
		t.Error("expected prometheus exporter to be configured")
	}

	if provider.Tracer("test") == nil {
		t.Error("expected tracer")
	}
}

func TestNewProviderInvalidExporter(t *testing.T) {
	ctx := context.Background()

	config := Config{
		ServiceName:     "test",
		Enabled:         true,
		MetricsExporter: "bogus",
		TracingExporter: ExporterNone,
	}

	if _, err := NewProvider(ctx, config); err == nil {
		t.Error("expected error for unsupported metrics exporter")
	}
}

func TestNewProviderOTLPMissingEndpoint(t *testing.T) {
	ctx := context.Background()

	config := Config{
		ServiceName:     "test",
		Enabled:         true,
		MetricsExporter: ExporterOTLP,
		TracingExporter: ExporterNone,
	}

	if _, err := NewProvider(ctx, config); err == nil {
		t.Error("expected error when OTLP endpoint is missing")
	}
}

package main

import (
	"context"
	"log/slog"

	"github.com/dcmc-apps/taskmanager/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// setupTracing installs a global TracerProvider when tracing is enabled.
// Finished spans are written to the log at debug level. It returns nil when
// tracing is disabled.
func setupTracing(cfg config.TracingConfig, logger *slog.Logger) (*sdktrace.TracerProvider, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
	))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(&logSpanExporter{logger: logger.With(slog.String("component", "tracing"))}),
	)
	otel.SetTracerProvider(tp)
	logger.Info("tracing enabled", slog.String("service_name", cfg.ServiceName))
	return tp, nil
}

// logSpanExporter writes finished spans as structured log lines.
type logSpanExporter struct {
	logger *slog.Logger
}

var _ sdktrace.SpanExporter = (*logSpanExporter)(nil)

func (e *logSpanExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		attrs := []slog.Attr{
			slog.String("trace_id", s.SpanContext().TraceID().String()),
			slog.String("span_id", s.SpanContext().SpanID().String()),
			slog.String("name", s.Name()),
			slog.Duration("duration", s.EndTime().Sub(s.StartTime())),
			slog.String("status", s.Status().Code.String()),
		}
		for _, kv := range s.Attributes() {
			attrs = append(attrs, slog.Any(string(kv.Key), kv.Value.AsInterface()))
		}
		e.logger.LogAttrs(ctx, slog.LevelDebug, "span finished", attrs...)
	}
	return nil
}

func (e *logSpanExporter) Shutdown(context.Context) error {
	return nil
}

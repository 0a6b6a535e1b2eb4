// ABOUTME: OpenTelemetry instruments for embedding fetches
// ABOUTME: No-ops unless the host process installs a meter provider
package core

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/harper/embedding-playground/internal/core"

type fetchMetrics struct {
	started   metric.Int64Counter
	succeeded metric.Int64Counter
	failed    metric.Int64Counter
	stale     metric.Int64Counter
	duration  metric.Float64Histogram
}

func newFetchMetrics() *fetchMetrics {
	meter := otel.Meter(meterName)
	m := &fetchMetrics{}
	// Instrument constructors return usable no-op instruments alongside any error.
	m.started, _ = meter.Int64Counter("playground.fetch.started",
		metric.WithDescription("Embedding fetches sent to a backend"))
	m.succeeded, _ = meter.Int64Counter("playground.fetch.succeeded",
		metric.WithDescription("Embedding fetches whose vector was applied"))
	m.failed, _ = meter.Int64Counter("playground.fetch.failed",
		metric.WithDescription("Embedding fetches that returned an error"))
	m.stale, _ = meter.Int64Counter("playground.fetch.stale",
		metric.WithDescription("Embedding fetch results dropped because newer input existed"))
	m.duration, _ = meter.Float64Histogram("playground.fetch.duration",
		metric.WithDescription("Embedding fetch latency"),
		metric.WithUnit("s"))
	return m
}

func (m *fetchMetrics) record(ctx context.Context, counter metric.Int64Counter, model string) {
	if counter == nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("model", model)))
}

func (m *fetchMetrics) observe(ctx context.Context, model string, elapsed time.Duration) {
	if m.duration == nil {
		return
	}
	m.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("model", model)))
}

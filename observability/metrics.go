/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package observability provides logging, metrics and tracing for publishing
// datastores.
//
// Features:
//   - Structured logging via slog
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// Everything is opt-in and has a no-op implementation.
package observability

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope used for all instruments.
const MeterName = "github.com/suparena/entityevents"

// MetricsRecorder records datastore and event metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordOperation records a mutating store operation with its latency and error status.
	RecordOperation(ctx context.Context, repository, operation string, duration time.Duration, err error)

	// RecordEvent records one published event and how many listeners completed.
	RecordEvent(ctx context.Context, repository, kind string, delivered int)

	// RecordListenerError records a listener that failed during dispatch.
	RecordListenerError(ctx context.Context, repository, kind string)
}

type otelMetrics struct {
	operations       metric.Int64Counter
	operationLatency metric.Float64Histogram
	operationErrors  metric.Int64Counter
	events           metric.Int64Counter
	deliveries       metric.Int64Counter
	listenerErrors   metric.Int64Counter
}

// NewMetricsRecorder returns a MetricsRecorder using the meter provider mp, or
// the global OTel provider when mp is nil. If instrument creation fails it
// logs a warning and returns a no-op recorder.
func NewMetricsRecorder(mp metric.MeterProvider) MetricsRecorder {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	m, err := newOtelMetrics(mp.Meter(MeterName))
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func newOtelMetrics(meter metric.Meter) (*otelMetrics, error) {
	operations, err := meter.Int64Counter("entityevents.store.operations",
		metric.WithDescription("Number of mutating store operations"),
	)
	if err != nil {
		return nil, err
	}

	operationLatency, err := meter.Float64Histogram("entityevents.store.latency_ms",
		metric.WithDescription("Store operation latency in milliseconds, including listeners"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	operationErrors, err := meter.Int64Counter("entityevents.store.errors",
		metric.WithDescription("Number of failed store operations"),
	)
	if err != nil {
		return nil, err
	}

	events, err := meter.Int64Counter("entityevents.events.published",
		metric.WithDescription("Number of published events"),
	)
	if err != nil {
		return nil, err
	}

	deliveries, err := meter.Int64Counter("entityevents.events.deliveries",
		metric.WithDescription("Number of completed listener invocations"),
	)
	if err != nil {
		return nil, err
	}

	listenerErrors, err := meter.Int64Counter("entityevents.listener.errors",
		metric.WithDescription("Number of listener failures"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		operations:       operations,
		operationLatency: operationLatency,
		operationErrors:  operationErrors,
		events:           events,
		deliveries:       deliveries,
		listenerErrors:   listenerErrors,
	}, nil
}

func (m *otelMetrics) RecordOperation(ctx context.Context, repository, operation string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("repository", repository),
		attribute.String("operation", operation),
	)
	m.operations.Add(ctx, 1, attrs)
	m.operationLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if err != nil {
		m.operationErrors.Add(ctx, 1, attrs)
	}
}

func (m *otelMetrics) RecordEvent(ctx context.Context, repository, kind string, delivered int) {
	attrs := metric.WithAttributes(
		attribute.String("repository", repository),
		attribute.String("kind", kind),
	)
	m.events.Add(ctx, 1, attrs)
	m.deliveries.Add(ctx, int64(delivered), attrs)
}

func (m *otelMetrics) RecordListenerError(ctx context.Context, repository, kind string) {
	m.listenerErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("repository", repository),
		attribute.String("kind", kind),
	))
}

// NoopMetrics is a MetricsRecorder that does nothing.
type NoopMetrics struct{}

var _ MetricsRecorder = NoopMetrics{}

// RecordOperation does nothing.
func (NoopMetrics) RecordOperation(context.Context, string, string, time.Duration, error) {}

// RecordEvent does nothing.
func (NoopMetrics) RecordEvent(context.Context, string, string, int) {}

// RecordListenerError does nothing.
func (NoopMetrics) RecordListenerError(context.Context, string, string) {}

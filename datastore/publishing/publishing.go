/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package publishing decorates a datastore.DataStore with lifecycle events.
//
// Every Save publishes BeforeInsert/AfterInsert or BeforeUpdate/AfterUpdate
// depending on whether the key existed, and every Delete of a present key
// publishes BeforeDelete/AfterDelete carrying the removed entity. Reads pass
// straight through.
//
// The insert/update decision is a HasKey call followed by the delegate's Save.
// The two are not atomic: concurrent saves of the same absent key may both
// publish BeforeInsert. Callers that need a stream matching the final store
// state must serialize writes to a key themselves.
package publishing

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/suparena/entityevents/datastore"
	"github.com/suparena/entityevents/errors"
	"github.com/suparena/entityevents/events"
	"github.com/suparena/entityevents/metadata"
	"github.com/suparena/entityevents/observability"
)

// DataStore publishes events around the mutations of a delegate store. It is
// itself a datastore.DataStore and an events.Publisher.
type DataStore[K comparable, E any] struct {
	delegate datastore.DataStore[K, E]
	md       *metadata.RepositoryMetadata
	registry *events.Registry

	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
}

var (
	_ datastore.DataStore[string, struct{}] = (*DataStore[string, struct{}])(nil)
	_ events.Publisher                      = (*DataStore[string, struct{}])(nil)
)

// Option configures a DataStore.
type Option func(*config)

type config struct {
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
}

// WithLogger sets the logger. Records carry the repository name.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(metrics observability.MetricsRecorder) Option {
	return func(c *config) {
		c.metrics = metrics
	}
}

// WithSpanManager sets the span manager used to trace Save and Delete.
func WithSpanManager(spans observability.SpanManager) Option {
	return func(c *config) {
		c.spans = spans
	}
}

// New wraps delegate. md is attached to every event and must describe the
// delegate's entity type.
func New[K comparable, E any](delegate datastore.DataStore[K, E], md *metadata.RepositoryMetadata, opts ...Option) (*DataStore[K, E], error) {
	if delegate == nil {
		return nil, errors.NewValidationError("delegate", "must not be nil")
	}
	if md == nil {
		return nil, errors.NewValidationError("metadata", "must not be nil")
	}
	if stored := indirect(delegate.EntityType()); stored != md.EntityType {
		return nil, errors.NewValidationError("metadata",
			fmt.Sprintf("describes %v but the store holds %v", md.EntityType, stored))
	}

	cfg := config{
		logger:  observability.DiscardLogger(),
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = observability.DiscardLogger()
	}

	return &DataStore[K, E]{
		delegate: delegate,
		md:       md,
		registry: events.NewRegistry(),
		logger:   observability.EnrichLogger(cfg.logger, md.RepositoryName),
		metrics:  cfg.metrics,
		spans:    cfg.spans,
	}, nil
}

func indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// Metadata returns the repository metadata attached to events.
func (s *DataStore[K, E]) Metadata() *metadata.RepositoryMetadata {
	return s.md
}

// HasKey delegates.
func (s *DataStore[K, E]) HasKey(ctx context.Context, key K) (bool, error) {
	return s.delegate.HasKey(ctx, key)
}

// Retrieve delegates.
func (s *DataStore[K, E]) Retrieve(ctx context.Context, key K) (*E, error) {
	return s.delegate.Retrieve(ctx, key)
}

// RetrieveAll delegates.
func (s *DataStore[K, E]) RetrieveAll(ctx context.Context) ([]E, error) {
	return s.delegate.RetrieveAll(ctx)
}

// EntityType delegates.
func (s *DataStore[K, E]) EntityType() reflect.Type {
	return s.delegate.EntityType()
}

// Save stores entity under key, bracketed by insert or update events. Errors
// from the delegate are returned unchanged; when the delegate fails after the
// before event was published, no after event follows.
func (s *DataStore[K, E]) Save(ctx context.Context, key K, entity E) (err error) {
	ctx, done := s.observe(ctx, "save")
	defer func() { done(err) }()

	exists, err := s.delegate.HasKey(ctx, key)
	if err != nil {
		return err
	}

	before, after := events.BeforeInsert, events.AfterInsert
	if exists {
		before, after = events.BeforeUpdate, events.AfterUpdate
	}

	if err = s.publish(ctx, before, entity); err != nil {
		return err
	}
	if err = s.delegate.Save(ctx, key, entity); err != nil {
		return err
	}
	return s.publish(ctx, after, entity)
}

// Delete removes the entity under key, bracketed by delete events carrying the
// removed entity. Deleting an absent key is a no-op without events.
func (s *DataStore[K, E]) Delete(ctx context.Context, key K) (err error) {
	exists, err := s.delegate.HasKey(ctx, key)
	if err != nil || !exists {
		return err
	}

	ctx, done := s.observe(ctx, "delete")
	defer func() { done(err) }()

	current, err := s.delegate.Retrieve(ctx, key)
	if errors.IsNotFound(err) || (err == nil && current == nil) {
		// removed concurrently after HasKey
		return nil
	}
	if err != nil {
		return err
	}
	entity := *current

	if err = s.publish(ctx, events.BeforeDelete, entity); err != nil {
		return err
	}
	if err = s.delegate.Delete(ctx, key); err != nil {
		return err
	}
	return s.publish(ctx, events.AfterDelete, entity)
}

// AddEventListener registers listener for every event whose kind is contained
// in kind. Registering the same listener twice makes it run twice.
func (s *DataStore[K, E]) AddEventListener(kind events.Kind, listener events.Listener) error {
	if err := s.registry.Add(kind, listener); err != nil {
		return err
	}
	s.logger.Debug("event listener added", slog.String("kind", kind.String()))
	return nil
}

// Listeners returns a snapshot of the listeners registered exactly under kind.
func (s *DataStore[K, E]) Listeners(kind events.Kind) []events.Listener {
	return s.registry.Listeners(kind)
}

// PublishEvent delivers event to every listener registered under a kind that
// contains the event's kind. Dispatch stops at the first listener error,
// which is returned as an *events.ListenerError.
func (s *DataStore[K, E]) PublishEvent(ctx context.Context, event events.Event) error {
	if event == nil {
		return errors.NewValidationError("event", "must not be nil")
	}

	kind := event.Kind().String()
	delivered, err := s.registry.Dispatch(ctx, event)
	s.metrics.RecordEvent(ctx, s.md.RepositoryName, kind, delivered)
	s.spans.AddSpanEvent(ctx, kind,
		attribute.String("event_id", event.ID()),
		attribute.Int("listeners", delivered),
	)

	if err != nil {
		s.metrics.RecordListenerError(ctx, s.md.RepositoryName, kind)
		s.logger.Warn("event listener failed",
			slog.String("kind", kind),
			slog.String("event_id", event.ID()),
			slog.Int("delivered", delivered),
			slog.String("error", err.Error()),
		)
		return err
	}

	s.logger.Debug("event published",
		slog.String("kind", kind),
		slog.String("event_id", event.ID()),
		slog.Int("delivered", delivered),
	)
	return nil
}

func (s *DataStore[K, E]) publish(ctx context.Context, kind events.Kind, entity E) error {
	return s.PublishEvent(ctx, events.New(kind, s.md, s, entity))
}

// observe starts a span for operation and returns a completion func recording
// the span status and the operation metrics.
func (s *DataStore[K, E]) observe(ctx context.Context, operation string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.spans.StartOperationSpan(ctx, s.md.RepositoryName, operation)
	return ctx, func(err error) {
		s.spans.EndSpanWithError(span, err)
		s.metrics.RecordOperation(ctx, s.md.RepositoryName, operation, time.Since(start), err)
	}
}

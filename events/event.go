/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/suparena/entityevents/metadata"
)

// Event is a notification published through a Publisher. DataStoreEvent is the
// implementation used for store lifecycle events; higher layers may publish
// their own types as long as Kind returns a concrete kind.
type Event interface {
	ID() string
	Kind() Kind
	Metadata() *metadata.RepositoryMetadata
	Publisher() Publisher
	Entity() any
	OccurredAt() time.Time
}

// Publisher dispatches events to listeners registered by kind.
type Publisher interface {
	// AddEventListener registers listener for every event contained in kind.
	AddEventListener(kind Kind, listener Listener) error

	// PublishEvent delivers event to every matching listener.
	PublishEvent(ctx context.Context, event Event) error
}

// DataStoreEvent describes one lifecycle moment of one entity. It is immutable.
type DataStoreEvent struct {
	id         string
	kind       Kind
	md         *metadata.RepositoryMetadata
	publisher  Publisher
	entity     any
	occurredAt time.Time
}

// New creates an event of the given concrete kind.
func New(kind Kind, md *metadata.RepositoryMetadata, publisher Publisher, entity any) *DataStoreEvent {
	return &DataStoreEvent{
		id:         uuid.NewString(),
		kind:       kind,
		md:         md,
		publisher:  publisher,
		entity:     entity,
		occurredAt: time.Now().UTC(),
	}
}

// ID returns the unique event identifier.
func (e *DataStoreEvent) ID() string { return e.id }

// Kind returns the concrete event kind.
func (e *DataStoreEvent) Kind() Kind { return e.kind }

// Metadata returns the repository the event concerns.
func (e *DataStoreEvent) Metadata() *metadata.RepositoryMetadata { return e.md }

// Publisher returns the store that published the event.
func (e *DataStoreEvent) Publisher() Publisher { return e.publisher }

// Entity returns the affected entity.
func (e *DataStoreEvent) Entity() any { return e.entity }

// OccurredAt returns the creation time in UTC.
func (e *DataStoreEvent) OccurredAt() time.Time { return e.occurredAt }

// EntityOf returns the event's entity as E. Pointer entities are dereferenced
// when E is not itself a pointer type.
func EntityOf[E any](event Event) (E, bool) {
	var zero E
	if event == nil {
		return zero, false
	}
	switch v := event.Entity().(type) {
	case E:
		return v, true
	case *E:
		if v != nil {
			return *v, true
		}
	}
	return zero, false
}

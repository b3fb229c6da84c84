/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package events

import (
	"context"
	"fmt"
)

// Listener handles events of the kind it was registered for.
type Listener interface {
	OnEvent(ctx context.Context, event Event) error
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, event Event) error

// OnEvent calls f.
func (f ListenerFunc) OnEvent(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// EntityListener adapts a function receiving a typed entity. Events whose
// entity is not an E are ignored.
func EntityListener[E any](fn func(ctx context.Context, event Event, entity E) error) Listener {
	return ListenerFunc(func(ctx context.Context, event Event) error {
		entity, ok := EntityOf[E](event)
		if !ok {
			return nil
		}
		return fn(ctx, event, entity)
	})
}

// ListenerError reports a listener failure. Dispatch stops at the first
// failing listener, so listeners after it did not see the event.
type ListenerError struct {
	Event    Event // The event being dispatched
	Kind     Kind  // Kind the failing listener was registered under
	Position int   // Index of the listener within that kind
	Err      error // Underlying error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("event %s (%s): listener %d registered for %s failed: %v",
		e.Event.ID(), e.Event.Kind(), e.Position, e.Kind, e.Err)
}

// Unwrap returns the listener's error.
func (e *ListenerError) Unwrap() error {
	return e.Err
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package events

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/suparena/entityevents/errors"
)

// Registry maps registered kinds to ordered listener lists.
//
// The outer map is a sync.Map and each list is an immutable slice swapped in
// with compare-and-swap, so Dispatch iterates snapshots without locks and
// registration never waits on a dispatch in progress. Lists are never removed.
type Registry struct {
	lists sync.Map // Kind -> *listenerList
}

type listenerList struct {
	items atomic.Pointer[[]Listener]
}

func (l *listenerList) append(listener Listener) {
	for {
		old := l.items.Load()
		var current []Listener
		if old != nil {
			current = *old
		}
		next := make([]Listener, len(current), len(current)+1)
		copy(next, current)
		next = append(next, listener)
		if l.items.CompareAndSwap(old, &next) {
			return
		}
	}
}

func (l *listenerList) snapshot() []Listener {
	if items := l.items.Load(); items != nil {
		return *items
	}
	return nil
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers listener under kind. The same listener may be added several
// times and is then invoked once per registration.
func (r *Registry) Add(kind Kind, listener Listener) error {
	if kind == 0 {
		return errors.NewValidationError("kind", "must not be empty")
	}
	if listener == nil {
		return errors.NewValidationError("listener", "must not be nil")
	}

	list, _ := r.lists.LoadOrStore(kind, &listenerList{})
	list.(*listenerList).append(listener)
	return nil
}

// Listeners returns a snapshot of the listeners registered exactly under kind.
func (r *Registry) Listeners(kind Kind) []Listener {
	list, ok := r.lists.Load(kind)
	if !ok {
		return nil
	}
	snapshot := list.(*listenerList).snapshot()
	out := make([]Listener, len(snapshot))
	copy(out, snapshot)
	return out
}

// Kinds returns every kind that has a listener list, in no particular order.
func (r *Registry) Kinds() []Kind {
	var kinds []Kind
	r.lists.Range(func(key, _ any) bool {
		kinds = append(kinds, key.(Kind))
		return true
	})
	return kinds
}

// Dispatch invokes, for every registered kind containing the event's kind,
// each listener of that kind in registration order. The order across kinds is
// unspecified. It stops at the first listener error and returns it as a
// *ListenerError, along with the number of listeners that completed.
func (r *Registry) Dispatch(ctx context.Context, event Event) (int, error) {
	if event == nil {
		return 0, errors.NewValidationError("event", "must not be nil")
	}

	eventKind := event.Kind()
	delivered := 0
	var failure error

	r.lists.Range(func(key, value any) bool {
		registered := key.(Kind)
		if !registered.Contains(eventKind) {
			return true
		}
		for i, listener := range value.(*listenerList).snapshot() {
			if err := listener.OnEvent(ctx, event); err != nil {
				failure = &ListenerError{Event: event, Kind: registered, Position: i, Err: err}
				return false
			}
			delivered++
		}
		return true
	})

	return delivered, failure
}

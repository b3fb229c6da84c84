/*
Package events provides the lifecycle events published by a publishing datastore
and the registry that dispatches them.

Kinds:
Every event has a concrete Kind. Listeners register against a Kind, which may
be a grouping acting as a supertype:

	BeforeInsert, AfterInsert, BeforeUpdate, AfterUpdate, BeforeDelete, AfterDelete
	Insert, Update, Delete, Before, After, Any

A listener registered for AfterInsert only sees AfterInsert events. A listener
registered for Insert sees BeforeInsert and AfterInsert. Additional concrete
kinds can be allocated with RegisterKind and are covered by Any.

Listening:

	store.AddEventListener(events.After, events.ListenerFunc(
	    func(ctx context.Context, ev events.Event) error {
	        log.Printf("%s %v", ev.Kind(), ev.Entity())
	        return nil
	    }))

Errors returned by a listener stop the dispatch and surface to the caller as a
*ListenerError wrapping the original error.
*/
package events

/*
Package entityevents adds lifecycle events to generic key/value entity stores.

A publishing store wraps any datastore.DataStore and announces each mutation
to listeners before and after it reaches the backend:

	store, err := entityevents.Wrap[string, User](mock.New[string, User](), nil)
	if err != nil {
	    return err // entity definition errors, e.g. two id fields
	}
	store.AddEventListener(events.AfterInsert, events.EntityListener[User](
	    func(ctx context.Context, ev events.Event, u User) error {
	        return welcome(ctx, u)
	    }))

	store.Save(ctx, "u1", User{ID: "u1"}) // BeforeInsert, AfterInsert
	store.Save(ctx, "u1", User{ID: "u1"}) // BeforeUpdate, AfterUpdate
	store.Delete(ctx, "u1")               // BeforeDelete, AfterDelete

Listeners registered under a group kind such as events.After or events.Any
receive every concrete kind the group contains.

Backends live under datastore: mock (in memory), sqlite and ddb (DynamoDB).
MultiTypeStorage catalogues named stores per key and entity type.
*/
package entityevents

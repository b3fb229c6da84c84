/*
Package datastore defines the core persistence interface that entityevents decorates.

The main interface is DataStore[K, E], a key/value capability for entities of type E:

	type DataStore[K comparable, E any] interface {
	    HasKey(ctx context.Context, key K) (bool, error)
	    Save(ctx context.Context, key K, entity E) error
	    Delete(ctx context.Context, key K) error
	    Retrieve(ctx context.Context, key K) (*E, error)
	    RetrieveAll(ctx context.Context) ([]E, error)
	    EntityType() reflect.Type
	}

Implementations:
  - mock: In-memory map implementation, also used as a test double
  - sqlite: Embedded SQLite implementation storing JSON documents
  - ddb: DynamoDB implementation with index-map key expansion
  - publishing: Decorator publishing lifecycle events around any DataStore

Stores are owned by the caller. Decorators hold a reference and never close
the stores they wrap.
*/
package datastore

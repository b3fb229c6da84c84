/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entityevents

import (
	"github.com/suparena/entityevents/datastore"
	"github.com/suparena/entityevents/datastore/publishing"
	"github.com/suparena/entityevents/metadata"
)

// Wrap resolves the metadata of E and decorates delegate with lifecycle
// events. Entity definition errors surface here, before any store is used.
func Wrap[K comparable, E any](delegate datastore.DataStore[K, E], mdOpts []metadata.Option, opts ...publishing.Option) (*publishing.DataStore[K, E], error) {
	md, err := metadata.For[E](mdOpts...)
	if err != nil {
		return nil, err
	}
	return publishing.New[K, E](delegate, md, opts...)
}

// RegisterPublishing wraps delegate and registers the result in mts under
// the repository name of E.
func RegisterPublishing[K comparable, E any](mts *MultiTypeStorage, delegate datastore.DataStore[K, E], opts ...publishing.Option) (*publishing.DataStore[K, E], error) {
	store, err := Wrap[K, E](delegate, nil, opts...)
	if err != nil {
		return nil, err
	}
	if err := RegisterDataStore[K, E](mts, store.Metadata().RepositoryName, store); err != nil {
		return nil, err
	}
	return store, nil
}

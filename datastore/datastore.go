/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"reflect"
)

// DataStore is the minimal key/value persistence capability for entities of
// type E identified by keys of type K.
type DataStore[K comparable, E any] interface {
	// HasKey reports whether an entity is stored under key.
	HasKey(ctx context.Context, key K) (bool, error)

	// Save stores entity under key, replacing any previous value.
	Save(ctx context.Context, key K, entity E) error

	// Delete removes the entity stored under key.
	Delete(ctx context.Context, key K) error

	// Retrieve returns the entity stored under key, or a NotFoundError.
	Retrieve(ctx context.Context, key K) (*E, error)

	// RetrieveAll returns every stored entity in no particular order.
	RetrieveAll(ctx context.Context) ([]E, error)

	// EntityType describes E.
	EntityType() reflect.Type
}

// TypeOf returns the reflect.Type of E. Backends use it to implement EntityType.
func TypeOf[E any]() reflect.Type {
	return reflect.TypeOf((*E)(nil)).Elem()
}

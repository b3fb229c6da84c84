/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entityevents

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/suparena/entityevents/datastore"
	"github.com/suparena/entityevents/errors"
)

// TypedStorage is a named catalogue of stores for entities of type E keyed by K
type TypedStorage[K comparable, E any] struct {
	mu     sync.RWMutex
	stores map[string]datastore.DataStore[K, E]
}

// NewTypedStorage creates a new TypedStorage
func NewTypedStorage[K comparable, E any]() *TypedStorage[K, E] {
	return &TypedStorage[K, E]{
		stores: make(map[string]datastore.DataStore[K, E]),
	}
}

// Register adds a datastore under name
func (ts *TypedStorage[K, E]) Register(name string, ds datastore.DataStore[K, E]) error {
	if ds == nil {
		return errors.NewValidationError("datastore", "must not be nil")
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	if _, exists := ts.stores[name]; exists {
		return errors.NewValidationError("name", fmt.Sprintf("datastore %q already registered", name))
	}

	ts.stores[name] = ds
	return nil
}

// Get retrieves a datastore by name
func (ts *TypedStorage[K, E]) Get(name string) (datastore.DataStore[K, E], error) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	ds, exists := ts.stores[name]
	if !exists {
		return nil, errors.NewNotFoundError("datastore", name)
	}

	return ds, nil
}

// Remove deletes a datastore by name
func (ts *TypedStorage[K, E]) Remove(name string) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if _, exists := ts.stores[name]; !exists {
		return errors.NewNotFoundError("datastore", name)
	}

	delete(ts.stores, name)
	return nil
}

// List returns the registered names in order
func (ts *TypedStorage[K, E]) List() []string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	names := make([]string, 0, len(ts.stores))
	for k := range ts.stores {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

type storageKey struct {
	key, entity reflect.Type
}

// MultiTypeStorage manages TypedStorage instances for different key and entity types
type MultiTypeStorage struct {
	mu       sync.Mutex
	storages map[storageKey]any
}

// NewMultiTypeStorage creates a new MultiTypeStorage
func NewMultiTypeStorage() *MultiTypeStorage {
	return &MultiTypeStorage{
		storages: make(map[storageKey]any),
	}
}

// GetTypedStorage returns the TypedStorage for K and E, creating it if necessary
func GetTypedStorage[K comparable, E any](mts *MultiTypeStorage) *TypedStorage[K, E] {
	mts.mu.Lock()
	defer mts.mu.Unlock()

	sk := storageKey{key: datastore.TypeOf[K](), entity: datastore.TypeOf[E]()}
	if storage, exists := mts.storages[sk]; exists {
		return storage.(*TypedStorage[K, E])
	}

	storage := NewTypedStorage[K, E]()
	mts.storages[sk] = storage
	return storage
}

// RegisterDataStore registers ds under name in the catalogue for its types
func RegisterDataStore[K comparable, E any](mts *MultiTypeStorage, name string, ds datastore.DataStore[K, E]) error {
	return GetTypedStorage[K, E](mts).Register(name, ds)
}

// GetDataStore returns the datastore registered under name for K and E
func GetDataStore[K comparable, E any](mts *MultiTypeStorage, name string) (datastore.DataStore[K, E], error) {
	return GetTypedStorage[K, E](mts).Get(name)
}

// RemoveDataStore removes the datastore registered under name for K and E
func RemoveDataStore[K comparable, E any](mts *MultiTypeStorage, name string) error {
	return GetTypedStorage[K, E](mts).Remove(name)
}

// ListDataStores lists the names registered for K and E
func ListDataStores[K comparable, E any](mts *MultiTypeStorage) []string {
	return GetTypedStorage[K, E](mts).List()
}

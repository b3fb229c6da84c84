/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory implementation of the DataStore interface.
// It is the default backend of storectl and the test double used across the module.
package mock

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/suparena/entityevents/datastore"
	"github.com/suparena/entityevents/errors"
)

// DataStore is a map-backed implementation of datastore.DataStore[K, E]
type DataStore[K comparable, E any] struct {
	mu            sync.RWMutex
	data          map[K]E
	saveHook      func(key K, entity E)
	hasKeyError   error
	saveError     error
	deleteError   error
	retrieveError error
}

var _ datastore.DataStore[string, struct{}] = (*DataStore[string, struct{}])(nil)

// New creates a new empty mock DataStore
func New[K comparable, E any]() *DataStore[K, E] {
	return &DataStore[K, E]{
		data: make(map[K]E),
	}
}

// WithHasKeyError makes HasKey operations return an error
func (m *DataStore[K, E]) WithHasKeyError(err error) *DataStore[K, E] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hasKeyError = err
	return m
}

// WithSaveError makes Save operations return an error
func (m *DataStore[K, E]) WithSaveError(err error) *DataStore[K, E] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
	return m
}

// WithDeleteError makes Delete operations return an error
func (m *DataStore[K, E]) WithDeleteError(err error) *DataStore[K, E] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteError = err
	return m
}

// WithRetrieveError makes Retrieve and RetrieveAll operations return an error
func (m *DataStore[K, E]) WithRetrieveError(err error) *DataStore[K, E] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retrieveError = err
	return m
}

// WithSaveHook registers a function called with every successfully saved entity,
// while the store lock is held
func (m *DataStore[K, E]) WithSaveHook(f func(key K, entity E)) *DataStore[K, E] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveHook = f
	return m
}

// HasKey reports whether key is present
func (m *DataStore[K, E]) HasKey(ctx context.Context, key K) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.hasKeyError != nil {
		return false, m.hasKeyError
	}
	_, exists := m.data[key]
	return exists, nil
}

// Save stores an entity
func (m *DataStore[K, E]) Save(ctx context.Context, key K, entity E) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveError != nil {
		return m.saveError
	}

	m.data[key] = entity
	if m.saveHook != nil {
		m.saveHook(key, entity)
	}
	return nil
}

// Retrieve returns the entity stored under key
func (m *DataStore[K, E]) Retrieve(ctx context.Context, key K) (*E, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.retrieveError != nil {
		return nil, m.retrieveError
	}
	if entity, exists := m.data[key]; exists {
		return &entity, nil
	}

	return nil, errors.NewNotFoundError(m.typeName(), fmt.Sprint(key))
}

// RetrieveAll returns all stored entities
func (m *DataStore[K, E]) RetrieveAll(ctx context.Context) ([]E, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.retrieveError != nil {
		return nil, m.retrieveError
	}

	results := make([]E, 0, len(m.data))
	for _, v := range m.data {
		results = append(results, v)
	}
	return results, nil
}

// Delete removes an entity by key
func (m *DataStore[K, E]) Delete(ctx context.Context, key K) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleteError != nil {
		return m.deleteError
	}

	if _, exists := m.data[key]; !exists {
		return errors.NewNotFoundError(m.typeName(), fmt.Sprint(key))
	}

	delete(m.data, key)
	return nil
}

// EntityType returns the reflect.Type of E
func (m *DataStore[K, E]) EntityType() reflect.Type {
	return datastore.TypeOf[E]()
}

// Helper methods for testing

// SetData directly sets the internal data map (for testing)
func (m *DataStore[K, E]) SetData(data map[K]E) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[K]E, len(data))
	for k, v := range data {
		m.data[k] = v
	}
}

// GetData returns a copy of the internal data map (for testing)
func (m *DataStore[K, E]) GetData() map[K]E {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[K]E, len(m.data))
	for k, v := range m.data {
		result[k] = v
	}
	return result
}

// Count returns the number of stored entities
func (m *DataStore[K, E]) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Clear removes all data
func (m *DataStore[K, E]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[K]E)
}

func (m *DataStore[K, E]) typeName() string {
	return m.EntityType().String()
}

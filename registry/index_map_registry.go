/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/suparena/entityevents/errors"
)

// Key attributes every index map must define.
const (
	PartitionKey = "PK"
	SortKey      = "SK"
)

// Registry associates entity types with the key templates a single-table
// backend uses to address them.
type Registry struct {
	mu   sync.RWMutex
	maps map[reflect.Type]map[string]string
}

// Default is the process-wide registry used by RegisterIndexMap and GetIndexMap.
var Default = New()

// New returns an empty registry.
func New() *Registry {
	return &Registry{maps: make(map[reflect.Type]map[string]string)}
}

// Register stores a copy of idxMap for t. Pointer types are registered under
// their element type. The map must template both PK and SK.
func (r *Registry) Register(t reflect.Type, idxMap map[string]string) error {
	t = elem(t)
	if t == nil {
		return errors.NewValidationError("type", "must not be nil")
	}
	for _, attr := range []string{PartitionKey, SortKey} {
		if idxMap[attr] == "" {
			return errors.NewValidationError("indexMap",
				fmt.Sprintf("%v: missing %s template", t, attr))
		}
	}

	cp := make(map[string]string, len(idxMap))
	for k, v := range idxMap {
		cp[k] = v
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.maps[t] = cp
	return nil
}

// Lookup returns a copy of the index map registered for t.
func (r *Registry) Lookup(t reflect.Type) (map[string]string, bool) {
	t = elem(t)

	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.maps[t]
	if !ok {
		return nil, false
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp, true
}

// Types lists the registered types ordered by name.
func (r *Registry) Types() []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]reflect.Type, 0, len(r.maps))
	for t := range r.maps {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// RegisterIndexMap associates a Go type T with a given DynamoDB index map (PK, SK, etc.).
func RegisterIndexMap[T any](idxMap map[string]string) error {
	return Default.Register(reflect.TypeOf((*T)(nil)).Elem(), idxMap)
}

// GetIndexMap retrieves the indexMap for type T, if any.
func GetIndexMap[T any]() (map[string]string, bool) {
	return Default.Lookup(reflect.TypeOf((*T)(nil)).Elem())
}

func elem(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

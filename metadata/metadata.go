/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package metadata describes the pairing of an entity type with the repository
// that stores it. Metadata is resolved once per entity type from struct tags
// and attached to every event a publishing store emits.
package metadata

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gertd/go-pluralize"
	"github.com/suparena/entityevents/errors"
)

// TagName is the struct tag inspected during resolution.
const TagName = "entity"

// IDMarker is the tag value that marks the identifier field.
const IDMarker = `entity:"id"`

var (
	pluralizer = pluralize.NewClient()

	// resolved caches the tag scan per entity type; options are applied on copies.
	resolved sync.Map // reflect.Type -> *RepositoryMetadata
)

// RepositoryMetadata identifies the entity and repository an event concerns.
type RepositoryMetadata struct {
	// EntityType is the (non-pointer) entity type.
	EntityType reflect.Type
	// IDType is the type of the identifier field.
	IDType reflect.Type
	// IDProperty is the Go name of the identifier field.
	IDProperty string
	// RepositoryName defaults to the lower-cased plural of the type name.
	RepositoryName string

	idIndex []int
}

// Option customizes resolved metadata.
type Option func(*RepositoryMetadata)

// WithRepositoryName overrides the derived repository name.
func WithRepositoryName(name string) Option {
	return func(m *RepositoryMetadata) {
		m.RepositoryName = name
	}
}

// For resolves metadata for E.
func For[E any](opts ...Option) (*RepositoryMetadata, error) {
	return Resolve(reflect.TypeOf((*E)(nil)).Elem(), opts...)
}

// MustFor is like For but panics on an invalid entity definition. Intended for
// package-level repository wiring.
func MustFor[E any](opts ...Option) *RepositoryMetadata {
	md, err := For[E](opts...)
	if err != nil {
		panic(err)
	}
	return md
}

// Resolve inspects entityType and returns its repository metadata. The
// identifier is the single field tagged entity:"id", or a field named ID when
// no field is tagged.
func Resolve(entityType reflect.Type, opts ...Option) (*RepositoryMetadata, error) {
	if entityType == nil {
		return nil, errors.NewValidationError("entityType", "must not be nil")
	}
	for entityType.Kind() == reflect.Pointer {
		entityType = entityType.Elem()
	}

	base, err := scan(entityType)
	if err != nil {
		return nil, err
	}

	md := *base
	for _, opt := range opts {
		opt(&md)
	}
	return &md, nil
}

func scan(entityType reflect.Type) (*RepositoryMetadata, error) {
	if cached, ok := resolved.Load(entityType); ok {
		return cached.(*RepositoryMetadata), nil
	}

	if entityType.Kind() != reflect.Struct {
		return nil, errors.NewEntityDefinitionError(entityType, "entity must be a struct")
	}

	var tagged []reflect.StructField
	var fallback *reflect.StructField
	for i := 0; i < entityType.NumField(); i++ {
		field := entityType.Field(i)
		if isIDTag(field.Tag.Get(TagName)) {
			tagged = append(tagged, field)
			continue
		}
		if field.Name == "ID" && fallback == nil {
			f := field
			fallback = &f
		}
	}

	var id reflect.StructField
	switch {
	case len(tagged) > 1:
		names := make([]string, 0, len(tagged))
		for _, f := range tagged {
			names = append(names, f.Name)
		}
		return nil, errors.NewMultipleIDPropertiesError(entityType, IDMarker, names...)
	case len(tagged) == 1:
		id = tagged[0]
	case fallback != nil:
		id = *fallback
	default:
		return nil, errors.NewNoIDPropertyError(entityType)
	}

	if !id.IsExported() {
		return nil, errors.NewEntityDefinitionError(entityType, fmt.Sprintf("identifier property %s is not exported", id.Name))
	}

	md := &RepositoryMetadata{
		EntityType:     entityType,
		IDType:         id.Type,
		IDProperty:     id.Name,
		RepositoryName: strings.ToLower(pluralizer.Plural(entityType.Name())),
		idIndex:        id.Index,
	}
	actual, _ := resolved.LoadOrStore(entityType, md)
	return actual.(*RepositoryMetadata), nil
}

func isIDTag(tag string) bool {
	name, _, _ := strings.Cut(tag, ",")
	return strings.TrimSpace(name) == "id"
}

// IDOf returns the identifier value of entity, which must be of EntityType or
// a pointer to it.
func (m *RepositoryMetadata) IDOf(entity any) (any, error) {
	v := reflect.ValueOf(entity)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, errors.NewValidationError("entity", "must not be nil")
		}
		v = v.Elem()
	}
	if v.Type() != m.EntityType {
		return nil, errors.NewValidationError("entity", fmt.Sprintf("expected %v, got %v", m.EntityType, v.Type()))
	}
	return v.FieldByIndex(m.idIndex).Interface(), nil
}

// String returns the repository name and entity type.
func (m *RepositoryMetadata) String() string {
	return fmt.Sprintf("%s(%v)", m.RepositoryName, m.EntityType)
}

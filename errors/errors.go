/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"reflect"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when an entity is not found
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoIndexMap is returned when no index map is found for a type
	ErrNoIndexMap = errors.New("no index map found for type")

	// ErrStoreClosed is returned by backends that have been closed
	ErrStoreClosed = errors.New("datastore is closed")

	// ErrEntityDefinition is matched by every entity definition error
	ErrEntityDefinition = errors.New("invalid entity definition")
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// EntityDefinitionError reports an entity type that cannot back a repository.
// It is raised while resolving repository metadata and is not recoverable at
// request time.
type EntityDefinitionError struct {
	EntityType reflect.Type
	Message    string
}

func (e *EntityDefinitionError) Error() string {
	return fmt.Sprintf("invalid definition of %v: %s", e.EntityType, e.Message)
}

func (e *EntityDefinitionError) Is(target error) bool {
	return target == ErrEntityDefinition
}

// MultipleIDPropertiesError is raised when more than one field of an entity
// carries the identifier marker.
type MultipleIDPropertiesError struct {
	EntityType reflect.Type
	Marker     string
	Properties []string
}

func (e *MultipleIDPropertiesError) Error() string {
	return fmt.Sprintf("there are multiple properties in %v that are tagged with %s: %v", e.EntityType, e.Marker, e.Properties)
}

func (e *MultipleIDPropertiesError) Is(target error) bool {
	return target == ErrEntityDefinition
}

// NoIDPropertyError is raised when an entity has no identifier field.
type NoIDPropertyError struct {
	EntityType reflect.Type
}

func (e *NoIDPropertyError) Error() string {
	return fmt.Sprintf("no identifier property could be determined for %v", e.EntityType)
}

func (e *NoIDPropertyError) Is(target error) bool {
	return target == ErrEntityDefinition
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewEntityDefinitionError creates a new EntityDefinitionError
func NewEntityDefinitionError(entityType reflect.Type, message string) error {
	return &EntityDefinitionError{EntityType: entityType, Message: message}
}

// NewMultipleIDPropertiesError creates a new MultipleIDPropertiesError
func NewMultipleIDPropertiesError(entityType reflect.Type, marker string, properties ...string) error {
	return &MultipleIDPropertiesError{EntityType: entityType, Marker: marker, Properties: properties}
}

// NewNoIDPropertyError creates a new NoIDPropertyError
func NewNoIDPropertyError(entityType reflect.Type) error {
	return &NoIDPropertyError{EntityType: entityType}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsEntityDefinitionError checks if an error belongs to the entity definition family
func IsEntityDefinitionError(err error) bool {
	return errors.Is(err, ErrEntityDefinition)
}

// Is and As re-export the standard library helpers so callers importing this
// package under the name errors keep access to them.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return errors.As(err, target) }

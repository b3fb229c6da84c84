/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

type account struct {
	ID    string
	Email string
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("User", "123")

	// Test error message
	expected := `User with key "123" not found`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	// Test Is method
	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFoundError should match ErrNotFound")
	}

	// Test helper function
	if !IsNotFound(err) {
		t.Error("IsNotFound should return true for NotFoundError")
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		message  string
		expected string
	}{
		{
			name:     "with field",
			field:    "kind",
			message:  "must not be empty",
			expected: `validation failed for field "kind": must not be empty`,
		},
		{
			name:     "without field",
			field:    "",
			message:  "listener is required",
			expected: "validation failed: listener is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message)

			if err.Error() != tt.expected {
				t.Errorf("Expected error message %q, got %q", tt.expected, err.Error())
			}

			if !errors.Is(err, ErrInvalidInput) {
				t.Error("ValidationError should match ErrInvalidInput")
			}

			if !IsValidationError(err) {
				t.Error("IsValidationError should return true for ValidationError")
			}
		})
	}
}

func TestEntityDefinitionFamily(t *testing.T) {
	typ := reflect.TypeOf(account{})

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "generic",
			err:      NewEntityDefinitionError(typ, "entity must be a struct"),
			expected: "invalid definition of errors.account: entity must be a struct",
		},
		{
			name:     "multiple ids",
			err:      NewMultipleIDPropertiesError(typ, `entity:"id"`, "ID", "Email"),
			expected: `there are multiple properties in errors.account that are tagged with entity:"id": [ID Email]`,
		},
		{
			name:     "no id",
			err:      NewNoIDPropertyError(typ),
			expected: "no identifier property could be determined for errors.account",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.expected {
				t.Errorf("Expected error message %q, got %q", tt.expected, tt.err.Error())
			}
			if !IsEntityDefinitionError(tt.err) {
				t.Error("error should belong to the entity definition family")
			}
			if IsValidationError(tt.err) || IsNotFound(tt.err) {
				t.Error("entity definition errors must not match unrelated sentinels")
			}
		})
	}

	var multi *MultipleIDPropertiesError
	err := fmt.Errorf("resolve metadata: %w", NewMultipleIDPropertiesError(typ, `entity:"id"`, "ID", "Email"))
	if !As(err, &multi) {
		t.Fatal("As should find MultipleIDPropertiesError through wrapping")
	}
	if len(multi.Properties) != 2 {
		t.Errorf("Expected 2 properties, got %v", multi.Properties)
	}
}

func TestErrorWrapping(t *testing.T) {
	// Test that wrapped errors still match
	original := NewNotFoundError("User", "123")
	wrapped := fmt.Errorf("database operation failed: %w", original)

	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("Wrapped NotFoundError should still match ErrNotFound")
	}

	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should work with wrapped errors")
	}

	if !Is(wrapped, ErrNotFound) {
		t.Error("Is should delegate to the standard library")
	}
}

func TestSentinelErrors(t *testing.T) {
	// Ensure sentinel errors are distinct
	sentinels := []error{
		ErrNotFound,
		ErrInvalidInput,
		ErrNoIndexMap,
		ErrStoreClosed,
		ErrEntityDefinition,
	}

	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v matches %v", err1, err2)
			}
		}
	}
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entityevents

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/suparena/entityevents/datastore/mock"
	"github.com/suparena/entityevents/errors"
	"github.com/suparena/entityevents/events"
	"github.com/suparena/entityevents/metadata"
)

// Test types
type TestUser struct {
	ID    string
	Name  string
	Email string
}

type TestProduct struct {
	SKU   string `entity:"id"`
	Name  string
	Price float64
}

func TestTypedStorage(t *testing.T) {
	t.Run("BasicOperations", func(t *testing.T) {
		storage := NewTypedStorage[string, TestUser]()

		// Register datastore
		if err := storage.Register("users", mock.New[string, TestUser]()); err != nil {
			t.Fatalf("Failed to register: %v", err)
		}

		// Get datastore
		retrieved, err := storage.Get("users")
		if err != nil {
			t.Fatalf("Failed to get: %v", err)
		}
		if retrieved == nil {
			t.Fatal("Retrieved store is nil")
		}

		// List datastores
		keys := storage.List()
		if len(keys) != 1 || keys[0] != "users" {
			t.Fatalf("Expected [users], got %v", keys)
		}

		// Remove datastore
		if err := storage.Remove("users"); err != nil {
			t.Fatalf("Failed to remove: %v", err)
		}

		// Verify removal
		if _, err := storage.Get("users"); !errors.IsNotFound(err) {
			t.Fatalf("Expected not found after removal, got %v", err)
		}
		if err := storage.Remove("users"); !errors.IsNotFound(err) {
			t.Fatalf("Expected not found removing twice, got %v", err)
		}
	})

	t.Run("DuplicateRegistration", func(t *testing.T) {
		storage := NewTypedStorage[string, TestUser]()

		if err := storage.Register("users", mock.New[string, TestUser]()); err != nil {
			t.Fatalf("First registration failed: %v", err)
		}
		if err := storage.Register("users", mock.New[string, TestUser]()); !errors.IsValidationError(err) {
			t.Fatalf("Expected duplicate registration error, got %v", err)
		}
		if err := storage.Register("nil", nil); !errors.IsValidationError(err) {
			t.Fatalf("Expected nil datastore to be rejected, got %v", err)
		}
	})
}

func TestMultiTypeStorage(t *testing.T) {
	mts := NewMultiTypeStorage()

	t.Run("DifferentTypes", func(t *testing.T) {
		if err := RegisterDataStore[string, TestUser](mts, "users", mock.New[string, TestUser]()); err != nil {
			t.Fatalf("Failed to register user store: %v", err)
		}
		if err := RegisterDataStore[int, TestProduct](mts, "products", mock.New[int, TestProduct]()); err != nil {
			t.Fatalf("Failed to register product store: %v", err)
		}

		if ds, err := GetDataStore[string, TestUser](mts, "users"); err != nil || ds == nil {
			t.Fatalf("Failed to get user store: %v", err)
		}
		if ds, err := GetDataStore[int, TestProduct](mts, "products"); err != nil || ds == nil {
			t.Fatalf("Failed to get product store: %v", err)
		}

		if keys := ListDataStores[string, TestUser](mts); len(keys) != 1 || keys[0] != "users" {
			t.Fatalf("Expected user keys [users], got %v", keys)
		}
		if keys := ListDataStores[int, TestProduct](mts); len(keys) != 1 || keys[0] != "products" {
			t.Fatalf("Expected product keys [products], got %v", keys)
		}
	})

	t.Run("SameEntityDifferentKeyTypes", func(t *testing.T) {
		if err := RegisterDataStore[string, TestProduct](mts, "items", mock.New[string, TestProduct]()); err != nil {
			t.Fatalf("Failed to register string-keyed store: %v", err)
		}
		if err := RegisterDataStore[int, TestProduct](mts, "items", mock.New[int, TestProduct]()); err != nil {
			t.Fatalf("Failed to register int-keyed store: %v", err)
		}

		if _, err := GetDataStore[string, TestProduct](mts, "items"); err != nil {
			t.Fatal("Failed to get string-keyed items")
		}
		if _, err := GetDataStore[int, TestProduct](mts, "items"); err != nil {
			t.Fatal("Failed to get int-keyed items")
		}
		if err := RemoveDataStore[int, TestProduct](mts, "items"); err != nil {
			t.Fatalf("Failed to remove: %v", err)
		}
		if _, err := GetDataStore[string, TestProduct](mts, "items"); err != nil {
			t.Fatal("Removing one key type must not affect the other")
		}
	})
}

func TestRegisterPublishing(t *testing.T) {
	ctx := context.Background()
	mts := NewMultiTypeStorage()

	store, err := RegisterPublishing[int, TestProduct](mts, mock.New[int, TestProduct]())
	if err != nil {
		t.Fatalf("RegisterPublishing failed: %v", err)
	}
	if got := store.Metadata().RepositoryName; got != "testproducts" {
		t.Fatalf("RepositoryName = %q", got)
	}

	var seen []events.Kind
	_ = store.AddEventListener(events.Insert, events.ListenerFunc(func(_ context.Context, ev events.Event) error {
		seen = append(seen, ev.Kind())
		return nil
	}))

	ds, err := GetDataStore[int, TestProduct](mts, "testproducts")
	if err != nil {
		t.Fatalf("GetDataStore failed: %v", err)
	}
	if err := ds.Save(ctx, 1, TestProduct{SKU: "A-1"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if len(seen) != 2 || seen[0] != events.BeforeInsert || seen[1] != events.AfterInsert {
		t.Fatalf("catalogued store should publish, got %v", seen)
	}
}

func TestWrapRejectsInvalidEntities(t *testing.T) {
	type twoIDs struct {
		A string `entity:"id"`
		B string `entity:"id"`
	}
	_, err := Wrap[string, twoIDs](mock.New[string, twoIDs](), nil)
	var multi *errors.MultipleIDPropertiesError
	if !errors.As(err, &multi) {
		t.Fatalf("expected MultipleIDPropertiesError, got %v", err)
	}

	type noID struct{ Name string }
	if _, err := Wrap[string, noID](mock.New[string, noID](), nil); !errors.IsEntityDefinitionError(err) {
		t.Fatalf("expected entity definition error, got %v", err)
	}

	store, err := Wrap[string, TestUser](mock.New[string, TestUser](), []metadata.Option{metadata.WithRepositoryName("members")})
	if err != nil {
		t.Fatal(err)
	}
	if store.Metadata().RepositoryName != "members" {
		t.Fatalf("RepositoryName = %q", store.Metadata().RepositoryName)
	}
}

func TestThreadSafety(t *testing.T) {
	mts := NewMultiTypeStorage()
	var wg sync.WaitGroup

	// Concurrent writes
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_ = RegisterDataStore[string, TestUser](mts, fmt.Sprintf("store%d", id), mock.New[string, TestUser]())
		}(i)
	}

	// Concurrent reads
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ListDataStores[string, TestUser](mts)
		}()
	}
	wg.Wait()

	// Verify all stores registered
	if keys := ListDataStores[string, TestUser](mts); len(keys) != 10 {
		t.Fatalf("Expected 10 stores, got %d", len(keys))
	}
}

func TestVersionInfo(t *testing.T) {
	info := GetVersionInfo()
	if info.Version != Version || info.GoVersion == "" {
		t.Fatalf("unexpected version info %+v", info)
	}
}

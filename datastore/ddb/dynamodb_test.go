/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/entityevents/datastore"
	"github.com/suparena/entityevents/datastore/publishing"
	"github.com/suparena/entityevents/errors"
	"github.com/suparena/entityevents/events"
	"github.com/suparena/entityevents/metadata"
	"github.com/suparena/entityevents/registry"
	"github.com/suparena/entityevents/storagemodels"
)

type Player struct {
	ID     string
	Name   string
	Rating int
}

var playerIndexMap = map[string]string{
	"PK":     "PLAYER#{ID}",
	"SK":     "PLAYER#{ID}",
	"GSI1PK": "NAME#{Name}",
}

// fakeClient is an in-memory single table keyed by PK and SK.
type fakeClient struct {
	mu        sync.Mutex
	items     map[string]map[string]types.AttributeValue
	scanErrs  []error
	scanCalls int
}

func newFakeClient() *fakeClient {
	return &fakeClient{items: make(map[string]map[string]types.AttributeValue)}
}

func str(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func itemKey(key map[string]types.AttributeValue) string {
	return str(key["PK"]) + "|" + str(key["SK"])
}

func (f *fakeClient) GetItem(_ context.Context, in *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &sdk.GetItemOutput{Item: f.items[itemKey(in.Key)]}, nil
}

func (f *fakeClient) PutItem(_ context.Context, in *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[itemKey(in.Item)] = in.Item
	return &sdk.PutItemOutput{}, nil
}

func (f *fakeClient) DeleteItem(_ context.Context, in *sdk.DeleteItemInput, _ ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := itemKey(in.Key)
	old := f.items[k]
	delete(f.items, k)
	out := &sdk.DeleteItemOutput{}
	if in.ReturnValues == types.ReturnValueAllOld {
		out.Attributes = old
	}
	return out, nil
}

// Scan evaluates Limit items in key order, then applies the EntityType filter,
// as DynamoDB does.
func (f *fakeClient) Scan(_ context.Context, in *sdk.ScanInput, _ ...func(*sdk.Options)) (*sdk.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scanCalls++
	if len(f.scanErrs) > 0 {
		err := f.scanErrs[0]
		f.scanErrs = f.scanErrs[1:]
		return nil, err
	}

	keys := make([]string, 0, len(f.items))
	for k := range f.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	start := 0
	if in.ExclusiveStartKey != nil {
		after := itemKey(in.ExclusiveStartKey)
		start = sort.SearchStrings(keys, after)
		if start < len(keys) && keys[start] == after {
			start++
		}
	}
	end := len(keys)
	if in.Limit != nil && start+int(*in.Limit) < end {
		end = start + int(*in.Limit)
	}

	want := str(in.ExpressionAttributeValues[":et"])
	out := &sdk.ScanOutput{}
	for _, k := range keys[start:end] {
		item := f.items[k]
		if str(item[EntityTypeAttribute]) == want {
			out.Items = append(out.Items, item)
		}
	}
	if end < len(keys) {
		last := f.items[keys[end-1]]
		out.LastEvaluatedKey = map[string]types.AttributeValue{"PK": last["PK"], "SK": last["SK"]}
	}
	return out, nil
}

func newPlayerStore(t *testing.T, client Client, opts ...Option) *DynamodbDataStore[string, Player] {
	t.Helper()
	store, err := New[string, Player](client, "players", append([]Option{WithIndexMap(playerIndexMap)}, opts...)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return store
}

func TestNew(t *testing.T) {
	t.Run("Validation", func(t *testing.T) {
		if _, err := New[string, Player](nil, "players"); !errors.IsValidationError(err) {
			t.Errorf("nil client: got %v", err)
		}
		if _, err := New[string, Player](newFakeClient(), ""); !errors.IsValidationError(err) {
			t.Errorf("empty table: got %v", err)
		}
		if _, err := New[string, Player](newFakeClient(), "t", WithIndexMap(map[string]string{"PK": "{ID}"})); !errors.IsValidationError(err) {
			t.Errorf("index map without SK: got %v", err)
		}
	})

	t.Run("IndexMapFromRegistry", func(t *testing.T) {
		r := registry.New()
		if _, err := New[string, Player](newFakeClient(), "players", WithRegistry(r)); !errors.Is(err, errors.ErrNoIndexMap) {
			t.Fatalf("expected ErrNoIndexMap, got %v", err)
		}
		if err := r.Register(datastore.TypeOf[Player](), playerIndexMap); err != nil {
			t.Fatal(err)
		}
		if _, err := New[string, *Player](newFakeClient(), "players", WithRegistry(r)); err != nil {
			t.Fatalf("pointer entities should share the registration: %v", err)
		}
	})
}

func TestCRUD(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	store := newPlayerStore(t, client)

	ann := Player{ID: "p1", Name: "Ann", Rating: 1800}
	if err := store.Save(ctx, "p1", ann); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw := client.items["PLAYER#p1|PLAYER#p1"]
	if raw == nil {
		t.Fatalf("item not stored under rendered key, have %v", client.items)
	}
	if got := str(raw[EntityTypeAttribute]); got != "Player" {
		t.Errorf("EntityType = %q, want Player", got)
	}
	if got := str(raw["GSI1PK"]); got != "NAME#Ann" {
		t.Errorf("GSI1PK = %q, want NAME#Ann", got)
	}

	exists, err := store.HasKey(ctx, "p1")
	if err != nil || !exists {
		t.Fatalf("HasKey = %v, %v; want true, nil", exists, err)
	}

	got, err := store.Retrieve(ctx, "p1")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if *got != ann {
		t.Errorf("Retrieve = %+v, want %+v", *got, ann)
	}

	if err := store.Delete(ctx, "p1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if exists, _ := store.HasKey(ctx, "p1"); exists {
		t.Error("key still present after Delete")
	}
	if _, err := store.Retrieve(ctx, "p1"); !errors.IsNotFound(err) {
		t.Errorf("Retrieve after delete: got %v", err)
	}
	if err := store.Delete(ctx, "p1"); !errors.IsNotFound(err) {
		t.Errorf("second Delete: got %v", err)
	}
}

func TestSaveUsesKeyOverEntityID(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	store := newPlayerStore(t, client)

	if err := store.Save(ctx, "alias", Player{ID: "p9", Name: "Bo"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := client.items["PLAYER#alias|PLAYER#alias"]; !ok {
		t.Fatalf("expected item addressed by the save key, have %v", client.items)
	}
	if exists, _ := store.HasKey(ctx, "alias"); !exists {
		t.Error("HasKey(alias) = false")
	}
}

func TestRetrieveAll(t *testing.T) {
	ctx := context.Background()

	t.Run("PagesAndFilters", func(t *testing.T) {
		client := newFakeClient()
		var reports []storagemodels.ScanProgress
		store := newPlayerStore(t, client, WithScanOptions(
			storagemodels.WithPageSize(2),
			storagemodels.WithProgressHandler(func(p storagemodels.ScanProgress) { reports = append(reports, p) }),
		))

		for _, id := range []string{"a", "b", "c", "d", "e"} {
			if err := store.Save(ctx, id, Player{ID: id}); err != nil {
				t.Fatal(err)
			}
		}
		client.items["OTHER#x|OTHER#x"] = map[string]types.AttributeValue{
			"PK":                &types.AttributeValueMemberS{Value: "OTHER#x"},
			"SK":                &types.AttributeValueMemberS{Value: "OTHER#x"},
			EntityTypeAttribute: &types.AttributeValueMemberS{Value: "Other"},
		}

		all, err := store.RetrieveAll(ctx)
		if err != nil {
			t.Fatalf("RetrieveAll failed: %v", err)
		}
		if len(all) != 5 {
			t.Fatalf("RetrieveAll returned %d players, want 5", len(all))
		}
		if client.scanCalls != 3 {
			t.Errorf("scan calls = %d, want 3 pages of 2", client.scanCalls)
		}
		final := reports[len(reports)-1]
		if final.ItemsProcessed != 5 || final.PagesProcessed != 3 || final.LastKey != nil {
			t.Errorf("final progress = %+v", final)
		}
	})

	t.Run("RetriesThrottling", func(t *testing.T) {
		client := newFakeClient()
		store := newPlayerStore(t, client, WithScanOptions(storagemodels.WithRetryBackoff(time.Millisecond)))
		_ = store.Save(ctx, "a", Player{ID: "a"})

		client.scanErrs = []error{&types.ProvisionedThroughputExceededException{Message: aws.String("slow down")}}
		all, err := store.RetrieveAll(ctx)
		if err != nil {
			t.Fatalf("RetrieveAll failed: %v", err)
		}
		if len(all) != 1 || client.scanCalls != 2 {
			t.Errorf("got %d items in %d calls", len(all), client.scanCalls)
		}
	})

	t.Run("GivesUpAfterMaxRetries", func(t *testing.T) {
		client := newFakeClient()
		store := newPlayerStore(t, client, WithScanOptions(
			storagemodels.WithMaxRetries(1),
			storagemodels.WithRetryBackoff(time.Millisecond),
		))
		throttled := &types.RequestLimitExceeded{Message: aws.String("limit")}
		client.scanErrs = []error{throttled, throttled, throttled}

		_, err := store.RetrieveAll(ctx)
		if err == nil || !strings.Contains(err.Error(), "after 1 retries") {
			t.Fatalf("expected exhausted retries, got %v", err)
		}
		var limit *types.RequestLimitExceeded
		if !errors.As(err, &limit) {
			t.Error("cause should stay inspectable")
		}
		if client.scanCalls != 2 {
			t.Errorf("scan calls = %d, want 2", client.scanCalls)
		}
	})

	t.Run("StopsOnPermanentError", func(t *testing.T) {
		client := newFakeClient()
		store := newPlayerStore(t, client)
		denied := stderrors.New("access denied")
		client.scanErrs = []error{denied}

		if _, err := store.RetrieveAll(ctx); !errors.Is(err, denied) {
			t.Fatalf("expected access denied, got %v", err)
		}
		if client.scanCalls != 1 {
			t.Errorf("permanent errors must not be retried, got %d calls", client.scanCalls)
		}
	})

	t.Run("HonoursCancellation", func(t *testing.T) {
		client := newFakeClient()
		store := newPlayerStore(t, client)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := store.RetrieveAll(cctx); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}

func TestIsRetryableError(t *testing.T) {
	cases := map[string]struct {
		err  error
		want bool
	}{
		"throughput": {&types.ProvisionedThroughputExceededException{}, true},
		"limit":      {&types.RequestLimitExceeded{}, true},
		"internal":   {&types.InternalServerError{}, true},
		"wrapped":    {stderrors.Join(stderrors.New("page 3"), &types.InternalServerError{}), true},
		"validation": {&types.ResourceNotFoundException{}, false},
		"plain":      {stderrors.New("boom"), false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := isRetryableError(tc.err); got != tc.want {
				t.Errorf("isRetryableError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestExpandMacros(t *testing.T) {
	expanded, err := expandMacros(map[string]string{
		"PK":   "PLAYER#{ID}",
		"SK":   "RATING#{Rating}",
		"GSI1": "{Missing}",
	}, Player{ID: "p1", Rating: 42})
	if err != nil {
		t.Fatal(err)
	}
	if expanded["PK"] != "PLAYER#p1" || expanded["SK"] != "RATING#42" || expanded["GSI1"] != "" {
		t.Errorf("unexpected expansion %v", expanded)
	}

	if _, err := buildKeyFromExpanded(expandStringKey(map[string]string{"PK": "{ID}", "SK": "{ID}"}, "")); err == nil {
		t.Error("empty key must not build a DynamoDB key")
	}
}

func TestPublishingOverDynamoDB(t *testing.T) {
	ctx := context.Background()
	store, err := publishing.New[string, Player](newPlayerStore(t, newFakeClient()), metadata.MustFor[Player]())
	if err != nil {
		t.Fatal(err)
	}

	var kinds []events.Kind
	if err := store.AddEventListener(events.Any, events.ListenerFunc(func(_ context.Context, ev events.Event) error {
		kinds = append(kinds, ev.Kind())
		return nil
	})); err != nil {
		t.Fatal(err)
	}

	_ = store.Save(ctx, "p1", Player{ID: "p1"})
	_ = store.Save(ctx, "p1", Player{ID: "p1", Rating: 1})
	_ = store.Delete(ctx, "p1")
	_ = store.Delete(ctx, "p1")

	want := []events.Kind{
		events.BeforeInsert, events.AfterInsert,
		events.BeforeUpdate, events.AfterUpdate,
		events.BeforeDelete, events.AfterDelete,
	}
	if len(kinds) != len(want) {
		t.Fatalf("events = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, kinds[i], want[i])
		}
	}
}

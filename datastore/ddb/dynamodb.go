/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/entityevents/datastore"
	"github.com/suparena/entityevents/errors"
	"github.com/suparena/entityevents/observability"
	"github.com/suparena/entityevents/registry"
	"github.com/suparena/entityevents/storagemodels"
)

// EntityTypeAttribute holds the entity type name on every item written.
const EntityTypeAttribute = "EntityType"

// Client is the subset of the DynamoDB API the store uses. *dynamodb.Client
// satisfies it.
type Client interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error)
	Scan(ctx context.Context, params *sdk.ScanInput, optFns ...func(*sdk.Options)) (*sdk.ScanOutput, error)
}

var _ Client = (*sdk.Client)(nil)

// DynamodbDataStore implements datastore.DataStore[K, E] on a single DynamoDB
// table. Item keys are rendered from the entity type's index map.
type DynamodbDataStore[K comparable, E any] struct {
	client     Client
	tableName  string
	indexMap   map[string]string
	entityType string
	scan       storagemodels.ScanOptions
	logger     *slog.Logger
}

var _ datastore.DataStore[string, struct{}] = (*DynamodbDataStore[string, struct{}])(nil)

// Option configures a DynamodbDataStore.
type Option func(*options)

type options struct {
	registry *registry.Registry
	indexMap map[string]string
	scan     []storagemodels.ScanOption
	logger   *slog.Logger
}

// WithRegistry resolves the index map from r instead of registry.Default.
func WithRegistry(r *registry.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithIndexMap uses idxMap instead of a registry lookup.
func WithIndexMap(idxMap map[string]string) Option {
	return func(o *options) {
		o.indexMap = idxMap
	}
}

// WithScanOptions configures the paged scan behind RetrieveAll.
func WithScanOptions(opts ...storagemodels.ScanOption) Option {
	return func(o *options) {
		o.scan = append(o.scan, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// NewDynamoDBClient initializes a DynamoDB client using static AWS credentials.
func NewDynamoDBClient(ctx context.Context, awsAccessKey, awsSecretKey, awsRegion string) (*sdk.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(awsRegion),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(awsAccessKey, awsSecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return sdk.NewFromConfig(cfg), nil
}

// NewDynamodbDataStore connects to tableName with static credentials.
func NewDynamodbDataStore[K comparable, E any](ctx context.Context, awsAccessKey, awsSecretKey, awsRegion, tableName string, opts ...Option) (*DynamodbDataStore[K, E], error) {
	client, err := NewDynamoDBClient(ctx, awsAccessKey, awsSecretKey, awsRegion)
	if err != nil {
		return nil, fmt.Errorf("failed to create DynamoDB client: %w", err)
	}
	return New[K, E](client, tableName, opts...)
}

// New builds a store for E on an existing client.
func New[K comparable, E any](client Client, tableName string, opts ...Option) (*DynamodbDataStore[K, E], error) {
	if client == nil {
		return nil, errors.NewValidationError("client", "must not be nil")
	}
	if tableName == "" {
		return nil, errors.NewValidationError("tableName", "must not be empty")
	}

	o := options{registry: registry.Default}
	for _, opt := range opts {
		opt(&o)
	}

	t := datastore.TypeOf[E]()
	idxMap := o.indexMap
	if idxMap == nil {
		var ok bool
		if idxMap, ok = o.registry.Lookup(t); !ok {
			return nil, fmt.Errorf("%w for %v", errors.ErrNoIndexMap, t)
		}
	} else if idxMap[registry.PartitionKey] == "" || idxMap[registry.SortKey] == "" {
		return nil, errors.NewValidationError("indexMap", "missing PK or SK template")
	}

	logger := o.logger
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	name := entityTypeName(t)

	logger.Debug("dynamodb store initialized",
		slog.String("table", tableName),
		slog.String("entity_type", name),
	)
	return &DynamodbDataStore[K, E]{
		client:     client,
		tableName:  tableName,
		indexMap:   idxMap,
		entityType: name,
		scan:       storagemodels.Apply(o.scan...),
		logger:     logger.With(slog.String("table", tableName), slog.String("entity_type", name)),
	}, nil
}

func entityTypeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// HasKey reports whether an item exists under key.
func (d *DynamodbDataStore[K, E]) HasKey(ctx context.Context, key K) (bool, error) {
	item, err := d.getItem(ctx, key, aws.String(registry.PartitionKey))
	if err != nil {
		return false, err
	}
	return item != nil, nil
}

// Retrieve returns the entity stored under key or a NotFoundError.
func (d *DynamodbDataStore[K, E]) Retrieve(ctx context.Context, key K) (*E, error) {
	item, err := d.getItem(ctx, key, nil)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errors.NewNotFoundError(d.entityType, fmt.Sprint(key))
	}

	result := new(E)
	if err := attributevalue.UnmarshalMap(item, result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return result, nil
}

// Save writes entity under key. Index map attributes other than PK and SK are
// rendered from the entity itself.
func (d *DynamodbDataStore[K, E]) Save(ctx context.Context, key K, entity E) error {
	keyMap, err := d.keyFor(key)
	if err != nil {
		return err
	}

	av, err := attributevalue.MarshalMap(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}
	expanded, err := expandMacros(d.indexMap, entity)
	if err != nil {
		return err
	}
	for k, v := range expanded {
		if v != "" {
			av[k] = &types.AttributeValueMemberS{Value: v}
		}
	}
	for k, v := range keyMap {
		av[k] = v
	}
	av[EntityTypeAttribute] = &types.AttributeValueMemberS{Value: d.entityType}

	if _, err := d.client.PutItem(ctx, &sdk.PutItemInput{
		TableName: &d.tableName,
		Item:      av,
	}); err != nil {
		return fmt.Errorf("PutItem failed: %w", err)
	}
	return nil
}

// Delete removes the item under key, returning a NotFoundError when none existed.
func (d *DynamodbDataStore[K, E]) Delete(ctx context.Context, key K) error {
	keyMap, err := d.keyFor(key)
	if err != nil {
		return err
	}

	out, err := d.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName:    &d.tableName,
		Key:          keyMap,
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return fmt.Errorf("failed to delete item in DynamoDB: %w", err)
	}
	if len(out.Attributes) == 0 {
		return errors.NewNotFoundError(d.entityType, fmt.Sprint(key))
	}
	return nil
}

// EntityType returns the reflect.Type of E.
func (d *DynamodbDataStore[K, E]) EntityType() reflect.Type {
	return datastore.TypeOf[E]()
}

func (d *DynamodbDataStore[K, E]) keyFor(key K) (map[string]types.AttributeValue, error) {
	keyMap, err := buildKeyFromExpanded(expandStringKey(d.indexMap, fmt.Sprint(key)))
	if err != nil {
		return nil, errors.NewValidationError("key", err.Error())
	}
	return keyMap, nil
}

func (d *DynamodbDataStore[K, E]) getItem(ctx context.Context, key K, projection *string) (map[string]types.AttributeValue, error) {
	keyMap, err := d.keyFor(key)
	if err != nil {
		return nil, err
	}

	out, err := d.client.GetItem(ctx, &sdk.GetItemInput{
		TableName:            &d.tableName,
		Key:                  keyMap,
		ProjectionExpression: projection,
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem error: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return out.Item, nil
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/entityevents/errors"
	"github.com/suparena/entityevents/storagemodels"
)

// RetrieveAll scans the table for items of this entity type, following
// LastEvaluatedKey until the table is exhausted.
func (d *DynamodbDataStore[K, E]) RetrieveAll(ctx context.Context) ([]E, error) {
	input := &sdk.ScanInput{
		TableName:                &d.tableName,
		FilterExpression:         aws.String("#et = :et"),
		ExpressionAttributeNames: map[string]string{"#et": EntityTypeAttribute},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":et": &types.AttributeValueMemberS{Value: d.entityType},
		},
		Limit: aws.Int32(d.scan.PageSize),
	}

	progress := storagemodels.ScanProgress{StartTime: time.Now()}
	report := func(lastKey map[string]types.AttributeValue) {
		if d.scan.ProgressHandler == nil {
			return
		}
		progress.LastKey = lastKey
		if elapsed := time.Since(progress.StartTime).Seconds(); elapsed > 0 {
			progress.CurrentRate = float64(progress.ItemsProcessed) / elapsed
		}
		d.scan.ProgressHandler(progress)
	}

	var results []E
	for {
		out, retries, err := d.scanWithRetry(ctx, input)
		progress.Retries += retries
		if err != nil {
			return nil, err
		}
		progress.PagesProcessed++

		for _, item := range out.Items {
			var entity E
			if err := attributevalue.UnmarshalMap(item, &entity); err != nil {
				return nil, fmt.Errorf("failed to unmarshal item on page %d: %w", progress.PagesProcessed, err)
			}
			results = append(results, entity)
			progress.ItemsProcessed++
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		report(out.LastEvaluatedKey)
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	report(nil)

	d.logger.Debug("scan complete",
		slog.Int64("items", progress.ItemsProcessed),
		slog.Int("pages", progress.PagesProcessed),
		slog.Int("retries", progress.Retries),
	)
	return results, nil
}

// scanWithRetry executes one page request, retrying retryable errors with a
// linearly growing backoff.
func (d *DynamodbDataStore[K, E]) scanWithRetry(ctx context.Context, input *sdk.ScanInput) (*sdk.ScanOutput, int, error) {
	var lastErr error

	for attempt := 0; attempt <= d.scan.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, attempt, err
		}

		out, err := d.client.Scan(ctx, input)
		if err == nil {
			return out, attempt, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return nil, attempt, fmt.Errorf("scan failed: %w", err)
		}

		if attempt < d.scan.MaxRetries {
			backoff := time.Duration(attempt+1) * d.scan.RetryBackoff
			d.logger.Warn("retrying scan",
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
				slog.String("error", err.Error()),
			)
			select {
			case <-ctx.Done():
				return nil, attempt, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, d.scan.MaxRetries, fmt.Errorf("scan failed after %d retries: %w", d.scan.MaxRetries, lastErr)
}

// isRetryableError determines if a DynamoDB error is retryable
func isRetryableError(err error) bool {
	var (
		throughput *types.ProvisionedThroughputExceededException
		limit      *types.RequestLimitExceeded
		internal   *types.InternalServerError
	)
	if errors.As(err, &throughput) || errors.As(err, &limit) || errors.As(err, &internal) {
		return true
	}

	var retryable interface{ IsRetryable() bool }
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

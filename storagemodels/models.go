/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ScanOptions configures how a paged backend walks a whole collection.
type ScanOptions struct {
	PageSize        int32              // Items per page (default: 100)
	MaxRetries      int                // Retry attempts for transient errors (default: 3)
	RetryBackoff    time.Duration      // Backoff between retries, multiplied by the attempt (default: 1s)
	ProgressHandler func(ScanProgress) // Optional progress callback, called after each page
}

// ScanProgress tracks scan progress
type ScanProgress struct {
	ItemsProcessed int64                           // Total items decoded
	PagesProcessed int                             // Total pages fetched
	Retries        int                             // Retried page requests so far
	LastKey        map[string]types.AttributeValue // Last evaluated key, nil on the final report
	StartTime      time.Time                       // When scanning started
	CurrentRate    float64                         // Items per second
}

// ScanOption is a functional option for configuring scans
type ScanOption func(*ScanOptions)

// DefaultScanOptions returns default scan options
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		PageSize:     100,
		MaxRetries:   3,
		RetryBackoff: time.Second,
	}
}

// Apply returns the defaults with opts applied in order.
func Apply(opts ...ScanOption) ScanOptions {
	options := DefaultScanOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.PageSize <= 0 {
		options.PageSize = DefaultScanOptions().PageSize
	}
	if options.MaxRetries < 0 {
		options.MaxRetries = 0
	}
	return options
}

// WithPageSize sets the page size
func WithPageSize(size int32) ScanOption {
	return func(opts *ScanOptions) {
		opts.PageSize = size
	}
}

// WithMaxRetries sets the maximum retry attempts
func WithMaxRetries(retries int) ScanOption {
	return func(opts *ScanOptions) {
		opts.MaxRetries = retries
	}
}

// WithRetryBackoff sets the retry backoff duration
func WithRetryBackoff(backoff time.Duration) ScanOption {
	return func(opts *ScanOptions) {
		opts.RetryBackoff = backoff
	}
}

// WithProgressHandler sets a progress callback
func WithProgressHandler(handler func(ScanProgress)) ScanOption {
	return func(opts *ScanOptions) {
		opts.ProgressHandler = handler
	}
}

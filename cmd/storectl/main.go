/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Command storectl manipulates records in a configured backend through a
// publishing store, logging every lifecycle event it emits.
//
// Usage:
//
//	storectl [-config file] [-stats] [-version] <command> [args]
//
// Commands:
//
//	put <id> <json>   save a record whose data is the given JSON object
//	get <id>          print a record
//	delete <id>       delete a record (absent ids are not an error)
//	list              print every record
//	demo              insert, update and delete a record twice over
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/suparena/entityevents"
	"github.com/suparena/entityevents/config"
	"github.com/suparena/entityevents/datastore"
	"github.com/suparena/entityevents/datastore/ddb"
	"github.com/suparena/entityevents/datastore/mock"
	"github.com/suparena/entityevents/datastore/publishing"
	"github.com/suparena/entityevents/datastore/sqlite"
	"github.com/suparena/entityevents/events"
	"github.com/suparena/entityevents/metadata"
	"github.com/suparena/entityevents/observability"
	"github.com/suparena/entityevents/registry"
	"github.com/suparena/entityevents/storagemodels"
)

// Record is the entity storectl manages.
type Record struct {
	ID        string         `json:"id" entity:"id"`
	Data      map[string]any `json:"data,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

var recordIndexMap = map[string]string{
	"PK": "RECORD#{ID}",
	"SK": "RECORD#{ID}",
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("storectl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to a YAML configuration file")
	stats := fs.Bool("stats", false, "Print operation and event counters on exit")
	version := fs.Bool("version", false, "Print version information and exit")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: storectl [-config file] [-stats] [-version] <put|get|delete|list|demo> [args]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *version {
		fmt.Fprintln(stdout, entityevents.GetVersionInfo())
		return 0
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "storectl: %v\n", err)
		return 1
	}
	logger := observability.NewLogger(stderr, cfg.Log.Level, cfg.Log.Format)

	var reader *sdkmetric.ManualReader
	metrics := observability.MetricsRecorder(observability.NoopMetrics{})
	if *stats {
		reader = sdkmetric.NewManualReader()
		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer provider.Shutdown(context.Background())
		metrics = observability.NewMetricsRecorder(provider)
	}

	store, closeStore, err := openStore(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Error("failed to open store", slog.String("backend", cfg.Backend), slog.String("error", err.Error()))
		return 1
	}
	defer closeStore()

	if err := execute(ctx, store, fs.Arg(0), fs.Args()[1:], stdout); err != nil {
		logger.Error("command failed", slog.String("command", fs.Arg(0)), slog.String("error", err.Error()))
		return 1
	}

	if reader != nil {
		if err := printStats(ctx, reader, stdout); err != nil {
			logger.Warn("failed to collect metrics", slog.String("error", err.Error()))
		}
	}
	return 0
}

// openStore builds the configured backend and wraps it in a publishing store
// whose listener logs every event.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics observability.MetricsRecorder) (*publishing.DataStore[string, Record], func(), error) {
	md, err := metadata.For[Record]()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Repository != "" {
		md, err = metadata.For[Record](metadata.WithRepositoryName(cfg.Repository))
		if err != nil {
			return nil, nil, err
		}
	}

	var backend datastore.DataStore[string, Record]
	closer := func() {}

	switch cfg.Backend {
	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		closer = func() { _ = db.Close() }
		if backend, err = sqlite.New[string, Record](db, md.RepositoryName); err != nil {
			closer()
			return nil, nil, err
		}
	case config.BackendDynamoDB:
		backend, err = ddb.NewDynamodbDataStore[string, Record](ctx,
			cfg.DynamoDB.AccessKey, cfg.DynamoDB.SecretKey, cfg.DynamoDB.Region, cfg.DynamoDB.Table,
			ddb.WithLogger(logger),
			ddb.WithScanOptions(storagemodels.WithPageSize(cfg.DynamoDB.PageSize)),
		)
		if err != nil {
			return nil, nil, err
		}
	default:
		backend = mock.New[string, Record]()
	}

	store, err := publishing.New[string, Record](backend, md,
		publishing.WithLogger(logger),
		publishing.WithMetrics(metrics),
	)
	if err != nil {
		closer()
		return nil, nil, err
	}

	eventLog := observability.EnrichLogger(logger, md.RepositoryName)
	if err := store.AddEventListener(events.Any, events.EntityListener[Record](
		func(_ context.Context, ev events.Event, r Record) error {
			eventLog.Info("event",
				slog.String("kind", ev.Kind().String()),
				slog.String("id", r.ID),
				slog.String("event_id", ev.ID()),
			)
			return nil
		})); err != nil {
		closer()
		return nil, nil, err
	}
	return store, closer, nil
}

func init() {
	if err := registry.RegisterIndexMap[Record](recordIndexMap); err != nil {
		panic(err)
	}
}

func execute(ctx context.Context, store *publishing.DataStore[string, Record], command string, args []string, out io.Writer) error {
	need := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("%s expects %d argument(s), got %d", command, n, len(args))
		}
		return nil
	}

	switch command {
	case "put":
		if err := need(2); err != nil {
			return err
		}
		var data map[string]any
		if err := json.Unmarshal([]byte(args[1]), &data); err != nil {
			return fmt.Errorf("record data must be a JSON object: %w", err)
		}
		return store.Save(ctx, args[0], Record{ID: args[0], Data: data, UpdatedAt: time.Now().UTC()})

	case "get":
		if err := need(1); err != nil {
			return err
		}
		r, err := store.Retrieve(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(out, r)

	case "delete":
		if err := need(1); err != nil {
			return err
		}
		return store.Delete(ctx, args[0])

	case "list":
		if err := need(0); err != nil {
			return err
		}
		records, err := store.RetrieveAll(ctx)
		if err != nil {
			return err
		}
		sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
		return printJSON(out, records)

	case "demo":
		if err := need(0); err != nil {
			return err
		}
		return demo(ctx, store, out)

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// demo walks k1 through insert, update and two deletes, printing the event
// kinds each step produced.
func demo(ctx context.Context, store *publishing.DataStore[string, Record], out io.Writer) error {
	var kinds []string
	if err := store.AddEventListener(events.Any, events.ListenerFunc(func(_ context.Context, ev events.Event) error {
		kinds = append(kinds, ev.Kind().String())
		return nil
	})); err != nil {
		return err
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"save entityA", func() error {
			return store.Save(ctx, "k1", Record{ID: "k1", Data: map[string]any{"name": "entityA"}})
		}},
		{"save entityB", func() error {
			return store.Save(ctx, "k1", Record{ID: "k1", Data: map[string]any{"name": "entityB"}})
		}},
		{"delete", func() error { return store.Delete(ctx, "k1") }},
		{"delete again", func() error { return store.Delete(ctx, "k1") }},
	}

	for _, step := range steps {
		kinds = kinds[:0]
		if err := step.run(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
		fmt.Fprintf(out, "%-13s %v\n", step.name, kinds)
	}
	return nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printStats(ctx context.Context, reader *sdkmetric.ManualReader, out io.Writer) error {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		return err
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			fmt.Fprintf(out, "%s %d\n", m.Name, total)
		}
	}
	return nil
}

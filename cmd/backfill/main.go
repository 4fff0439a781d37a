// Command backfill re-drives the ingestion pipeline over every object under
// a bucket prefix. It is safe to run against partially processed data
// because each stage is idempotent.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/sieve-ai/fileflow/internal/gcp"
	"github.com/sieve-ai/fileflow/internal/models"
	"github.com/sieve-ai/fileflow/internal/services"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	var (
		bucket      string
		prefix      string
		concurrency int
	)
	pflag.StringVar(&bucket, "bucket", "", "bucket to backfill (defaults to the configured data-lake bucket)")
	pflag.StringVar(&prefix, "prefix", "raw/storage/", "object prefix to re-drive")
	pflag.IntVar(&concurrency, "concurrency", 8, "maximum files processed in parallel")
	pflag.Parse()

	ctx := context.Background()
	orchestrator, cfg, err := gcp.BuildOrchestrator(ctx)
	if err != nil {
		slog.Error("Failed to initialize pipeline.", "error", err)
		os.Exit(1)
	}
	if bucket == "" {
		bucket = cfg.DataLakeBucket
	}

	store, err := gcp.NewStorage(ctx)
	if err != nil {
		slog.Error("Failed to create storage client.", "error", err)
		os.Exit(1)
	}

	names, err := store.List(ctx, bucket, prefix)
	if err != nil {
		slog.Error("Failed to list objects.", "bucket", bucket, "prefix", prefix, "error", err)
		os.Exit(1)
	}
	slog.Info("Backfill starting.", "bucket", bucket, "prefix", prefix, "objectCount", len(names))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)

	var processed, isolated, skipped int64
	results := make([]services.Outcome, len(names))
	for i, name := range names {
		eg.Go(func() error {
			outcome, err := orchestrator.Process(gctx, models.GCSEvent{Bucket: bucket, Name: name})
			if err != nil {
				slog.Error("Backfill failed for object.", "gcsObject", name, "error", err)
				return err
			}
			results[i] = outcome
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		slog.Error("Backfill aborted.", "error", err)
		os.Exit(1)
	}

	for _, outcome := range results {
		switch outcome {
		case services.OutcomeProcessed:
			processed++
		case services.OutcomeIsolated:
			isolated++
		case services.OutcomeSkipped:
			skipped++
		}
	}
	slog.Info("Backfill complete.", "processed", processed, "isolated", isolated, "skipped", skipped)
}

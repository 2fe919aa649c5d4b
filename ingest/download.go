package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lei-rs/midas-go/config"
	"github.com/lei-rs/midas-go/logger"
)

// Options tunes how jobs run. The zero value streams from the external
// reader with no raw capture.
type Options struct {
	// NewSource overrides the line source per job; nil uses
	// CommandSource.
	NewSource func(DownloadArgs) LineSource
	// CaptureRaw tees the consumed stream into
	// <base>/<date>/<ticker>.raw.gz.
	CaptureRaw bool
}

func (o Options) source(args DownloadArgs) LineSource {
	if o.NewSource != nil {
		return o.NewSource(args)
	}
	return CommandSource{Date: args.Date, Ticker: args.Ticker}
}

// Download runs one ingestion job synchronously.
func Download(args DownloadArgs, baseDir string) error {
	return DownloadWith(args, baseDir, Options{})
}

// DownloadWith runs one job with explicit options.
func DownloadWith(args DownloadArgs, baseDir string, opts Options) error {
	log := logger.L()
	if err := args.Validate(); err != nil {
		return err
	}

	stream, err := opts.source(args).Open()
	if err != nil {
		return fmt.Errorf("job %s/%s: %w", args.Date, args.Ticker, err)
	}

	var capture *RawCapture
	if opts.CaptureRaw {
		capturePath := filepath.Join(baseDir, args.Date, args.Ticker+".raw.gz")
		capture, err = NewRawCapture(capturePath)
		if err != nil {
			stream.Close()
			return fmt.Errorf("job %s/%s: %w", args.Date, args.Ticker, err)
		}
	}

	start := time.Now()
	log.Info("Starting download", map[string]interface{}{
		"date":     args.Date,
		"ticker":   args.Ticker,
		"capacity": args.Capacity,
		"skip":     len(args.Skip),
	})

	stats, runErr := args.run(baseDir, stream, capture)

	if capture != nil {
		if err := capture.Close(); err != nil && runErr == nil {
			runErr = err
		}
	}
	if err := stream.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return fmt.Errorf("job %s/%s: %w", args.Date, args.Ticker, runErr)
	}

	log.Info("Completed download", map[string]interface{}{
		"date":     args.Date,
		"ticker":   args.Ticker,
		"symbols":  stats.Symbols,
		"routed":   stats.Routed,
		"skipped":  stats.Skipped,
		"dropped":  stats.Dropped,
		"batches":  stats.Batches,
		"duration": time.Since(start).String(),
	})
	return nil
}

// ParDownload runs many jobs concurrently, at most workers at a time.
// The first job to fail aborts outstanding work and its error is
// returned; jobs already completed keep their output.
func ParDownload(ctx context.Context, jobs []DownloadArgs, baseDir string, workers int) error {
	return ParDownloadWith(ctx, jobs, baseDir, workers, Options{})
}

// ParDownloadWith is ParDownload with explicit options.
func ParDownloadWith(ctx context.Context, jobs []DownloadArgs, baseDir string, workers int, opts Options) error {
	if workers <= 0 {
		return &config.Error{Field: "workers", Reason: "must be positive"}
	}
	log := logger.L()
	runID := uuid.NewString()
	log.Info("Starting parallel download", map[string]interface{}{
		"run_id":  runID,
		"jobs":    len(jobs),
		"workers": workers,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return DownloadWith(job, baseDir, opts)
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("Parallel download failed", map[string]interface{}{
			"run_id": runID,
			"error":  err.Error(),
		})
		return err
	}
	log.Info("Completed parallel download", map[string]interface{}{
		"run_id": runID,
		"jobs":   len(jobs),
	})
	return nil
}

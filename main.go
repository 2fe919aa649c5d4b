package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lei-rs/midas-go/config"
	"github.com/lei-rs/midas-go/ingest"
	"github.com/lei-rs/midas-go/logger"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to JSON config file")
		jobsPath   = flag.String("jobs", "", "path to jobs manifest CSV")
		date       = flag.String("date", "", "date for a single job")
		ticker     = flag.String("ticker", "", "underlying ticker for a single job")
		capacity   = flag.Int("capacity", 0, "rows per flushed batch (overrides config)")
		skip       = flag.String("skip", "", "comma-separated symbols to exclude")
		workers    = flag.Int("workers", 0, "concurrent jobs (overrides config)")
	)
	flag.Parse()

	log := logger.GetLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load config", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if *capacity > 0 {
		cfg.Capacity = *capacity
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var jobs []ingest.DownloadArgs
	switch {
	case *jobsPath != "":
		jobs, err = ingest.LoadJobs(*jobsPath, cfg.Capacity)
		if err != nil {
			log.Fatal("Failed to load jobs manifest", map[string]interface{}{
				"error": err.Error(),
				"path":  *jobsPath,
			})
		}
	case *date != "" && *ticker != "":
		jobs = []ingest.DownloadArgs{{
			Date:     *date,
			Ticker:   *ticker,
			Capacity: cfg.Capacity,
			Skip:     parseSkipFlag(*skip),
		}}
	default:
		log.Fatal("Nothing to do: pass -jobs or both -date and -ticker", nil)
	}

	opts := ingest.Options{CaptureRaw: cfg.CaptureRaw}
	if err := ingest.ParDownloadWith(ctx, jobs, cfg.BaseDir, cfg.Workers, opts); err != nil {
		log.Fatal("Download failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func parseSkipFlag(s string) map[string]struct{} {
	skip := make(map[string]struct{})
	for _, sym := range strings.Split(s, ",") {
		sym = strings.TrimSpace(sym)
		if sym != "" {
			skip[sym] = struct{}{}
		}
	}
	return skip
}

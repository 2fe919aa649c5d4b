package ingest

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"

	"github.com/lei-rs/midas-go/config"
	"github.com/lei-rs/midas-go/logger"
)

// scanBufSize bounds a single raw line. Quote lines run well under this.
const scanBufSize = 1 << 20

// DownloadArgs describes one independent (date, ticker) ingestion job.
// Immutable once a job starts.
type DownloadArgs struct {
	Date     string
	Ticker   string
	Capacity int
	Skip     map[string]struct{}
}

// Validate checks the job arguments.
func (a DownloadArgs) Validate() error {
	if a.Date == "" {
		return &config.Error{Field: "date", Reason: "must not be empty"}
	}
	if a.Ticker == "" {
		return &config.Error{Field: "ticker", Reason: "must not be empty"}
	}
	if a.Capacity <= 0 {
		return &config.Error{Field: "capacity", Reason: "must be positive"}
	}
	return nil
}

func (a DownloadArgs) skipped(symbol string) bool {
	_, ok := a.Skip[symbol]
	return ok
}

func (a DownloadArgs) productPath(baseDir, symbol string) string {
	return filepath.Join(baseDir, a.Date, a.Ticker, symbol+".parquet")
}

// Stats summarizes one completed splitter run.
type Stats struct {
	Symbols int
	Routed  int64
	Skipped int64
	Dropped int64
	Batches int64
}

// run consumes the line stream in arrival order, creating a Product the
// first time each symbol is seen and routing every later line for that
// symbol to it. All products are closed before returning, on every exit
// path, so even a failed run leaves footer-terminated files behind.
func (a DownloadArgs) run(baseDir string, r io.Reader, capture *RawCapture) (Stats, error) {
	log := logger.L()
	products := make(map[string]*Product)
	var stats Stats

	routeErr := func() error {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), scanBufSize)
		for scanner.Scan() {
			line := scanner.Text()
			if capture != nil {
				if err := capture.WriteLine(line); err != nil {
					return err
				}
			}
			symbol, err := ExtractSymbol(line)
			if err != nil {
				return err
			}
			if a.skipped(symbol) {
				stats.Skipped++
				continue
			}
			product, ok := products[symbol]
			if !ok {
				product = NewProduct(a.productPath(baseDir, symbol), a.Capacity)
				products[symbol] = product
			}
			if err := product.Push(line); err != nil {
				return fmt.Errorf("symbol %s: %w", symbol, err)
			}
			stats.Routed++
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading line stream: %w", err)
		}
		return nil
	}()

	var closeErr error
	for symbol, product := range products {
		if err := product.Close(); err != nil {
			log.Error("failed to close product", map[string]interface{}{
				"error":  err.Error(),
				"symbol": symbol,
				"path":   product.Path(),
			})
			if closeErr == nil {
				closeErr = fmt.Errorf("symbol %s: %w", symbol, err)
			}
		}
		stats.Dropped += product.Dropped()
		stats.Batches += product.Batches()
	}
	stats.Symbols = len(products)

	if routeErr != nil {
		return stats, routeErr
	}
	return stats, closeErr
}

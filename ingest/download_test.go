package ingest

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lei-rs/midas-go/config"
)

type brokenSource struct{}

func (brokenSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(&brokenReader{}), nil
}

type brokenReader struct{}

func (*brokenReader) Read([]byte) (int, error) {
	return 0, errors.New("stream torn down")
}

func TestParDownloadRunsAllJobs(t *testing.T) {
	baseDir := t.TempDir()
	tickers := []string{"SPXW", "SPX", "NDXP", "VIXW"}

	jobs := make([]DownloadArgs, 0, len(tickers))
	for _, ticker := range tickers {
		jobs = append(jobs, DownloadArgs{
			Date:     "20220302",
			Ticker:   ticker,
			Capacity: 100,
			Skip:     map[string]struct{}{},
		})
	}

	opts := Options{
		NewSource: func(args DownloadArgs) LineSource {
			line := quoteFor(args.Ticker + "_220302C04400000")
			return ReaderSource{R: strings.NewReader(line)}
		},
	}
	require.NoError(t, ParDownloadWith(context.Background(), jobs, baseDir, 2, opts))

	for _, ticker := range tickers {
		path := filepath.Join(baseDir, "20220302", ticker, ticker+"220302C04400000.parquet")
		assert.EqualValues(t, 1, readRowCount(t, path), ticker)
	}
}

func TestParDownloadFailsFastOnFirstJobError(t *testing.T) {
	baseDir := t.TempDir()
	jobs := []DownloadArgs{
		{Date: "20220302", Ticker: "SPXW", Capacity: 100},
		{Date: "20220302", Ticker: "BROKEN", Capacity: 100},
		{Date: "20220302", Ticker: "SPX", Capacity: 100},
	}

	opts := Options{
		NewSource: func(args DownloadArgs) LineSource {
			if args.Ticker == "BROKEN" {
				return brokenSource{}
			}
			return ReaderSource{R: strings.NewReader(quoteFor(args.Ticker + "_1"))}
		},
	}
	err := ParDownloadWith(context.Background(), jobs, baseDir, 1, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "20220302/BROKEN")

	// The job completed before the failure keeps its output.
	path := filepath.Join(baseDir, "20220302", "SPXW", "SPXW1.parquet")
	assert.EqualValues(t, 1, readRowCount(t, path))
}

func TestParDownloadRejectsBadWorkerBudget(t *testing.T) {
	err := ParDownload(context.Background(), nil, t.TempDir(), 0)
	require.Error(t, err)

	var cfgErr *config.Error
	assert.True(t, errors.As(err, &cfgErr))
}

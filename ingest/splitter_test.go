package ingest

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lei-rs/midas-go/config"
)

func testJob(capacity int, skip ...string) DownloadArgs {
	skipSet := make(map[string]struct{})
	for _, s := range skip {
		skipSet[s] = struct{}{}
	}
	return DownloadArgs{
		Date:     "20220302",
		Ticker:   "SPXW",
		Capacity: capacity,
		Skip:     skipSet,
	}
}

func downloadStream(t *testing.T, args DownloadArgs, baseDir, stream string, captureRaw bool) error {
	t.Helper()
	opts := Options{
		NewSource: func(DownloadArgs) LineSource {
			return ReaderSource{R: strings.NewReader(stream)}
		},
		CaptureRaw: captureRaw,
	}
	return DownloadWith(args, baseDir, opts)
}

func TestDownloadSplitsStreamBySymbol(t *testing.T) {
	baseDir := t.TempDir()
	stream := strings.Join([]string{
		quoteFor("SPXW_220302C04400000"),
		quoteFor("SPXW_220302P04000000"),
		quoteFor("SPXW_220302C04400000"),
		quoteFor("SPXW_220302C04400000"),
	}, "\n")

	require.NoError(t, downloadStream(t, testJob(100), baseDir, stream, false))

	callPath := filepath.Join(baseDir, "20220302", "SPXW", "SPXW220302C04400000.parquet")
	putPath := filepath.Join(baseDir, "20220302", "SPXW", "SPXW220302P04000000.parquet")
	assert.EqualValues(t, 3, readRowCount(t, callPath))
	assert.EqualValues(t, 1, readRowCount(t, putPath))
}

func TestDownloadRespectsSkipSet(t *testing.T) {
	baseDir := t.TempDir()
	stream := strings.Join([]string{
		quoteFor("SPXW_220302C04400000"),
		quoteFor("SPXW_220302P04000000"),
		quoteFor("SPXW_220302C04400000"),
	}, "\n")

	require.NoError(t, downloadStream(t, testJob(100, "SPXW220302C04400000"), baseDir, stream, false))

	skippedPath := filepath.Join(baseDir, "20220302", "SPXW", "SPXW220302C04400000.parquet")
	_, err := os.Stat(skippedPath)
	assert.True(t, os.IsNotExist(err))

	putPath := filepath.Join(baseDir, "20220302", "SPXW", "SPXW220302P04000000.parquet")
	assert.EqualValues(t, 1, readRowCount(t, putPath))
}

func TestDownloadFailsOnShortLineButClosesWriters(t *testing.T) {
	baseDir := t.TempDir()
	stream := strings.Join([]string{
		quoteFor("SPXW_220302C04400000"),
		quoteFor("SPXW_220302C04400000"),
		"no symbol",
	}, "\n")

	err := downloadStream(t, testJob(100), baseDir, stream, false)
	require.Error(t, err)

	var symErr *SymbolExtractionError
	assert.True(t, errors.As(err, &symErr))
	assert.Contains(t, err.Error(), "20220302/SPXW")

	// Rows routed before the failure were flushed with a valid footer.
	callPath := filepath.Join(baseDir, "20220302", "SPXW", "SPXW220302C04400000.parquet")
	assert.EqualValues(t, 2, readRowCount(t, callPath))
}

func TestDownloadMixedQuoteAndTradeRows(t *testing.T) {
	baseDir := t.TempDir()
	stream := strings.Join([]string{
		quoteFor("SPXW_220302C04400000"),
		"FT 1646233200000000002 3 4 T SPXW_220302C04400000 X 7 8.25 A B C D",
		quoteFor("SPXW_220302C04400000"),
	}, "\n")

	require.NoError(t, downloadStream(t, testJob(2), baseDir, stream, false))

	callPath := filepath.Join(baseDir, "20220302", "SPXW", "SPXW220302C04400000.parquet")
	assert.EqualValues(t, 3, readRowCount(t, callPath))
}

func TestDownloadInvalidCapacity(t *testing.T) {
	err := downloadStream(t, testJob(0), t.TempDir(), "", false)
	require.Error(t, err)

	var cfgErr *config.Error
	assert.True(t, errors.As(err, &cfgErr))
}

func TestDownloadCapturesRawStream(t *testing.T) {
	baseDir := t.TempDir()
	lines := []string{
		quoteFor("SPXW_220302C04400000"),
		quoteFor("SPXW_220302P04000000"),
	}
	stream := strings.Join(lines, "\n")

	require.NoError(t, downloadStream(t, testJob(100), baseDir, stream, true))

	f, err := os.Open(filepath.Join(baseDir, "20220302", "SPXW.raw.gz"))
	require.NoError(t, err)
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	var got []string
	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		got = append(got, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, lines, got)
}

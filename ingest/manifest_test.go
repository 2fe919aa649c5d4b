package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lei-rs/midas-go/config"
)

func writeManifest(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadJobs(t *testing.T) {
	path := writeManifest(t, `date,ticker,capacity,skip
20220302,SPXW,5000,SPXW220302C04400000|SPXW220302P04000000
20220303,SPX,0,
`)

	jobs, err := LoadJobs(path, 10000)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, "20220302", jobs[0].Date)
	assert.Equal(t, "SPXW", jobs[0].Ticker)
	assert.Equal(t, 5000, jobs[0].Capacity)
	assert.Len(t, jobs[0].Skip, 2)
	assert.Contains(t, jobs[0].Skip, "SPXW220302C04400000")

	// Capacity 0 inherits the default; empty skip column means none.
	assert.Equal(t, 10000, jobs[1].Capacity)
	assert.Empty(t, jobs[1].Skip)
}

func TestLoadJobsRejectsInvalidRow(t *testing.T) {
	path := writeManifest(t, `date,ticker,capacity,skip
20220302,,5000,
`)

	_, err := LoadJobs(path, 10000)
	require.Error(t, err)

	var cfgErr *config.Error
	assert.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, err.Error(), "row 1")
}

func TestLoadJobsMissingFile(t *testing.T) {
	_, err := LoadJobs(filepath.Join(t.TempDir(), "nope.csv"), 10000)
	require.Error(t, err)
}

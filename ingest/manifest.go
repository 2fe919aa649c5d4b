package ingest

import (
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
)

// jobRow is one line of the jobs manifest CSV. The skip column is a
// pipe-separated list of symbols.
type jobRow struct {
	Date     string `csv:"date"`
	Ticker   string `csv:"ticker"`
	Capacity int    `csv:"capacity"`
	Skip     string `csv:"skip"`
}

// LoadJobs reads a jobs manifest CSV into download arguments. A row with
// capacity 0 inherits defaultCapacity. Every row is validated.
func LoadJobs(path string, defaultCapacity int) ([]DownloadArgs, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open jobs manifest: %w", err)
	}
	defer f.Close()

	var rows []*jobRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse jobs manifest: %w", err)
	}

	jobs := make([]DownloadArgs, 0, len(rows))
	for i, row := range rows {
		args := DownloadArgs{
			Date:     row.Date,
			Ticker:   row.Ticker,
			Capacity: row.Capacity,
			Skip:     parseSkip(row.Skip),
		}
		if args.Capacity == 0 {
			args.Capacity = defaultCapacity
		}
		if err := args.Validate(); err != nil {
			return nil, fmt.Errorf("jobs manifest row %d: %w", i+1, err)
		}
		jobs = append(jobs, args)
	}
	return jobs, nil
}

func parseSkip(s string) map[string]struct{} {
	skip := make(map[string]struct{})
	for _, sym := range strings.Split(s, "|") {
		sym = strings.TrimSpace(sym)
		if sym != "" {
			skip[sym] = struct{}{}
		}
	}
	return skip
}

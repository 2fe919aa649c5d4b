package ingest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/pgzip"
)

// RawCapture tees a job's consumed stream into a compressed file so a run
// can be replayed after a schema bug without re-pulling the source.
type RawCapture struct {
	file *os.File
	gz   *pgzip.Writer
	buf  *bufio.Writer
}

// NewRawCapture creates the capture file at path, truncating any previous
// capture, with directories made on demand.
func NewRawCapture(path string) (*RawCapture, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create capture directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture file: %w", err)
	}
	gz := pgzip.NewWriter(file)
	return &RawCapture{
		file: file,
		gz:   gz,
		buf:  bufio.NewWriter(gz),
	}, nil
}

// WriteLine appends one raw line to the capture.
func (c *RawCapture) WriteLine(line string) error {
	if _, err := c.buf.WriteString(line); err != nil {
		return fmt.Errorf("capture write failed: %w", err)
	}
	if err := c.buf.WriteByte('\n'); err != nil {
		return fmt.Errorf("capture write failed: %w", err)
	}
	return nil
}

// Close flushes and finalizes the capture file.
func (c *RawCapture) Close() error {
	if err := c.buf.Flush(); err != nil {
		c.gz.Close()
		c.file.Close()
		return fmt.Errorf("capture flush failed: %w", err)
	}
	if err := c.gz.Close(); err != nil {
		c.file.Close()
		return fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return c.file.Close()
}

package ingest

import (
	"errors"

	"github.com/apache/arrow/go/v14/arrow/memory"

	"github.com/lei-rs/midas-go/columnar"
	"github.com/lei-rs/midas-go/logger"
)

// ErrProductClosed is returned on pushes after Close.
var ErrProductClosed = errors.New("ingest: product is closed")

// Product owns the buffered columns and output file for one symbol. Rows
// accumulate in a FrameBuilder until capacity is reached, then flush to the
// parquet writer as one batch. The writer is opened lazily on the first
// flush; Close performs the final flush and writes the footer.
//
// A Product belongs to exactly one splitter run and is not safe for
// concurrent use.
type Product struct {
	path     string
	capacity int
	builder  *columnar.FrameBuilder
	writer   *columnar.BatchedWriter
	mem      memory.Allocator
	log      *logger.Logger

	batches int64
	dropped int64
	closed  bool
}

// NewProduct creates a Product writing to path, flushing every capacity
// rows. Nothing touches the filesystem until the first flush.
func NewProduct(path string, capacity int) *Product {
	return &Product{
		path:     path,
		capacity: capacity,
		builder:  columnar.NewFrameBuilder(capacity),
		mem:      memory.NewGoAllocator(),
		log:      logger.L(),
	}
}

// Path returns the output file path.
func (p *Product) Path() string {
	return p.path
}

// Dropped reports rows discarded because they failed to parse.
func (p *Product) Dropped() int64 {
	return p.dropped
}

// Batches reports the number of flushed record batches.
func (p *Product) Batches() int64 {
	return p.batches
}

// Push routes one raw line into the columns, flushing first if the buffer
// is at capacity. A line that fails normalization or numeric parsing is
// logged and dropped; only flush I/O errors are returned.
func (p *Product) Push(line string) error {
	if p.closed {
		return ErrProductClosed
	}
	if p.builder.Len() >= p.capacity {
		if err := p.Flush(); err != nil {
			return err
		}
	}

	row, err := NormalizeRow(line)
	if err != nil {
		p.dropRow(line, err)
		return nil
	}
	if err := p.builder.Append(row); err != nil {
		var parseErr *columnar.NumericParseError
		if errors.As(err, &parseErr) {
			p.dropRow(line, err)
			return nil
		}
		return err
	}
	return nil
}

func (p *Product) dropRow(line string, err error) {
	p.dropped++
	p.log.Error("dropping row", map[string]interface{}{
		"error": err.Error(),
		"path":  p.path,
		"line":  line,
	})
}

// Flush converts the buffered rows into a record batch and writes it,
// opening the parquet writer on the first call. The consumed builder is
// replaced with a fresh empty one.
func (p *Product) Flush() error {
	rec, err := p.builder.NewRecord(p.mem)
	if err != nil {
		return err
	}
	defer rec.Release()
	p.builder = columnar.NewFrameBuilder(p.capacity)

	if p.writer == nil {
		w, err := columnar.NewBatchedWriter(p.path, rec.Schema())
		if err != nil {
			return err
		}
		p.writer = w
	}
	if err := p.writer.Write(rec); err != nil {
		return err
	}
	p.batches++
	return nil
}

// Close flushes any remaining buffered rows and finalizes the file.
// A symbol that never flushed still gets a (possibly empty) well-formed
// file. Idempotent: later calls do nothing.
func (p *Product) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true

	var firstErr error
	if p.builder.Len() > 0 || p.writer == nil {
		firstErr = p.Flush()
	}
	if p.writer != nil {
		if err := p.writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

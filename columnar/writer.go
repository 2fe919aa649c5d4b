package columnar

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/compress"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"
)

var (
	// ErrSchemaMismatch is returned when a record batch disagrees with the
	// schema the writer was opened with.
	ErrSchemaMismatch = errors.New("columnar: record schema does not match writer schema")

	// ErrWriterClosed is returned on writes after Close.
	ErrWriterClosed = errors.New("columnar: writer is closed")
)

// BatchedWriter writes arrow record batches to a single parquet file. The
// schema is fixed at construction; every batch must match it exactly. The
// file footer is written on Close.
type BatchedWriter struct {
	path   string
	file   *os.File
	writer *pqarrow.FileWriter
	schema *arrow.Schema
	rows   int64
	closed bool
}

// NewBatchedWriter creates path (truncating any previous file, directories
// made on demand) and opens a parquet writer over it.
func NewBatchedWriter(path string, schema *arrow.Schema) (*BatchedWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	writerProps := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Zstd),
		parquet.WithDictionaryDefault(true),
		parquet.WithDataPageSize(1024*1024),
		parquet.WithVersion(parquet.V2_LATEST),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithStoreSchema(),
	)

	writer, err := pqarrow.NewFileWriter(schema, file, writerProps, arrowProps)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}

	return &BatchedWriter{
		path:   path,
		file:   file,
		writer: writer,
		schema: schema,
	}, nil
}

// Path returns the output file path.
func (w *BatchedWriter) Path() string {
	return w.path
}

// Rows returns the number of rows written across all batches.
func (w *BatchedWriter) Rows() int64 {
	return w.rows
}

// Write appends one record batch as a row group.
func (w *BatchedWriter) Write(rec arrow.Record) error {
	if w.closed {
		return ErrWriterClosed
	}
	if !rec.Schema().Equal(w.schema) {
		return fmt.Errorf("%w: got %v", ErrSchemaMismatch, rec.Schema())
	}
	if err := w.writer.Write(rec); err != nil {
		return fmt.Errorf("failed to write record batch: %w", err)
	}
	w.rows += rec.NumRows()
	return nil
}

// Close writes the parquet footer and closes the file. Safe to call more
// than once.
func (w *BatchedWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.writer.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return w.file.Close()
}

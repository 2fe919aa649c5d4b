package columnar

import (
	"fmt"
	"strconv"

	"github.com/apache/arrow/go/v14/arrow/array"
)

// NumericParseError reports a field that could not be parsed into its
// column's primitive type. The owning row is dropped as a whole.
type NumericParseError struct {
	Column string
	Raw    string
	Err    error
}

func (e *NumericParseError) Error() string {
	return fmt.Sprintf("column %s: cannot parse %q: %v", e.Column, e.Raw, e.Err)
}

func (e *NumericParseError) Unwrap() error {
	return e.Err
}

// categorical buffers one dictionary-encoded column. The intern table is
// scoped to the current batch and discarded when the frame is built, which
// bounds memory for a full day's vocabulary.
type categorical struct {
	index  map[string]uint32
	values []string
	refs   []uint32
}

func newCategorical(capacity int) *categorical {
	return &categorical{
		index: make(map[string]uint32),
		refs:  make([]uint32, 0, capacity),
	}
}

func (c *categorical) append(v string) {
	id, ok := c.index[v]
	if !ok {
		id = uint32(len(c.values))
		c.index[v] = id
		c.values = append(c.values, v)
	}
	c.refs = append(c.refs, id)
}

func (c *categorical) len() int {
	return len(c.refs)
}

// cardinality reports the number of distinct values interned so far.
func (c *categorical) cardinality() int {
	return len(c.values)
}

func (c *categorical) appendTo(b *array.StringBuilder) {
	b.Reserve(len(c.refs))
	for _, id := range c.refs {
		b.Append(c.values[id])
	}
}

type uint64Column struct {
	vals []uint64
}

func newUint64Column(capacity int) *uint64Column {
	return &uint64Column{vals: make([]uint64, 0, capacity)}
}

func (c *uint64Column) append(v uint64) {
	c.vals = append(c.vals, v)
}

func (c *uint64Column) len() int {
	return len(c.vals)
}

func (c *uint64Column) appendTo(b *array.Uint64Builder) {
	b.AppendValues(c.vals, nil)
}

type uint32Column struct {
	vals []uint32
}

func newUint32Column(capacity int) *uint32Column {
	return &uint32Column{vals: make([]uint32, 0, capacity)}
}

func (c *uint32Column) append(v uint32) {
	c.vals = append(c.vals, v)
}

func (c *uint32Column) len() int {
	return len(c.vals)
}

func (c *uint32Column) appendTo(b *array.Uint32Builder) {
	b.AppendValues(c.vals, nil)
}

type float32Column struct {
	vals []float32
}

func newFloat32Column(capacity int) *float32Column {
	return &float32Column{vals: make([]float32, 0, capacity)}
}

func (c *float32Column) append(v float32) {
	c.vals = append(c.vals, v)
}

func (c *float32Column) len() int {
	return len(c.vals)
}

func (c *float32Column) appendTo(b *array.Float32Builder) {
	b.AppendValues(c.vals, nil)
}

func parseUint64(column, raw string) (uint64, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, &NumericParseError{Column: column, Raw: raw, Err: err}
	}
	return v, nil
}

func parseUint32(column, raw string) (uint32, error) {
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, &NumericParseError{Column: column, Raw: raw, Err: err}
	}
	return uint32(v), nil
}

func parseFloat32(column, raw string) (float32, error) {
	v, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return 0, &NumericParseError{Column: column, Raw: raw, Err: err}
	}
	return float32(v), nil
}

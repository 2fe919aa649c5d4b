package columnar

import (
	"errors"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
)

// NumColumns is the fixed width of a normalized tick row.
const NumColumns = 15

// Schema is the on-disk schema for per-symbol tick files. Categorical
// columns are written as strings; dictionary encoding happens in the
// parquet writer, so the per-batch intern tables never outlive a flush.
var Schema = arrow.NewSchema([]arrow.Field{
	{Name: "c1", Type: arrow.BinaryTypes.String},
	{Name: "c2", Type: arrow.PrimitiveTypes.Uint64},
	{Name: "c3", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "c4", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "c5", Type: arrow.BinaryTypes.String},
	{Name: "c6", Type: arrow.BinaryTypes.String},
	{Name: "c7", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "c8", Type: arrow.PrimitiveTypes.Float32},
	{Name: "c9", Type: arrow.BinaryTypes.String},
	{Name: "c10", Type: arrow.BinaryTypes.String},
	{Name: "c11", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "c12", Type: arrow.PrimitiveTypes.Float32},
	{Name: "c13", Type: arrow.BinaryTypes.String},
	{Name: "c14", Type: arrow.BinaryTypes.String},
	{Name: "c15", Type: arrow.BinaryTypes.String},
}, nil)

// ErrBuilderConsumed is returned when a FrameBuilder is used after
// NewRecord has been called on it.
var ErrBuilderConsumed = errors.New("columnar: frame builder already consumed")

// FrameBuilder accumulates normalized rows into typed column buffers for
// the fixed tick schema. A row either lands in all fifteen columns or in
// none: the numeric fields are parsed up front, before any buffer is
// touched, so a bad field can never leave the columns at unequal lengths.
type FrameBuilder struct {
	c1  *categorical
	c2  *uint64Column
	c3  *uint32Column
	c4  *uint32Column
	c5  *categorical
	c6  *categorical
	c7  *uint32Column
	c8  *float32Column
	c9  *categorical
	c10 *categorical
	c11 *uint32Column
	c12 *float32Column
	c13 *categorical
	c14 *categorical
	c15 *categorical

	rows     int
	consumed bool
}

// NewFrameBuilder returns a builder with every column buffer sized for
// capacity rows.
func NewFrameBuilder(capacity int) *FrameBuilder {
	return &FrameBuilder{
		c1:  newCategorical(capacity),
		c2:  newUint64Column(capacity),
		c3:  newUint32Column(capacity),
		c4:  newUint32Column(capacity),
		c5:  newCategorical(capacity),
		c6:  newCategorical(capacity),
		c7:  newUint32Column(capacity),
		c8:  newFloat32Column(capacity),
		c9:  newCategorical(capacity),
		c10: newCategorical(capacity),
		c11: newUint32Column(capacity),
		c12: newFloat32Column(capacity),
		c13: newCategorical(capacity),
		c14: newCategorical(capacity),
		c15: newCategorical(capacity),
	}
}

// Append parses and buffers one row.
func (f *FrameBuilder) Append(row [NumColumns]string) error {
	if f.consumed {
		return ErrBuilderConsumed
	}

	v2, err := parseUint64("c2", row[1])
	if err != nil {
		return err
	}
	v3, err := parseUint32("c3", row[2])
	if err != nil {
		return err
	}
	v4, err := parseUint32("c4", row[3])
	if err != nil {
		return err
	}
	v7, err := parseUint32("c7", row[6])
	if err != nil {
		return err
	}
	v8, err := parseFloat32("c8", row[7])
	if err != nil {
		return err
	}
	v11, err := parseUint32("c11", row[10])
	if err != nil {
		return err
	}
	v12, err := parseFloat32("c12", row[11])
	if err != nil {
		return err
	}

	f.c1.append(row[0])
	f.c2.append(v2)
	f.c3.append(v3)
	f.c4.append(v4)
	f.c5.append(row[4])
	f.c6.append(row[5])
	f.c7.append(v7)
	f.c8.append(v8)
	f.c9.append(row[8])
	f.c10.append(row[9])
	f.c11.append(v11)
	f.c12.append(v12)
	f.c13.append(row[12])
	f.c14.append(row[13])
	f.c15.append(row[14])

	f.rows++
	return nil
}

// Len reports the number of rows buffered since construction.
func (f *FrameBuilder) Len() int {
	return f.rows
}

// NewRecord materializes the buffered columns as one arrow record batch.
// The builder is consumed: further Append or NewRecord calls fail.
func (f *FrameBuilder) NewRecord(mem memory.Allocator) (arrow.Record, error) {
	if f.consumed {
		return nil, ErrBuilderConsumed
	}
	f.consumed = true

	b := array.NewRecordBuilder(mem, Schema)
	defer b.Release()

	f.c1.appendTo(b.Field(0).(*array.StringBuilder))
	f.c2.appendTo(b.Field(1).(*array.Uint64Builder))
	f.c3.appendTo(b.Field(2).(*array.Uint32Builder))
	f.c4.appendTo(b.Field(3).(*array.Uint32Builder))
	f.c5.appendTo(b.Field(4).(*array.StringBuilder))
	f.c6.appendTo(b.Field(5).(*array.StringBuilder))
	f.c7.appendTo(b.Field(6).(*array.Uint32Builder))
	f.c8.appendTo(b.Field(7).(*array.Float32Builder))
	f.c9.appendTo(b.Field(8).(*array.StringBuilder))
	f.c10.appendTo(b.Field(9).(*array.StringBuilder))
	f.c11.appendTo(b.Field(10).(*array.Uint32Builder))
	f.c12.appendTo(b.Field(11).(*array.Float32Builder))
	f.c13.appendTo(b.Field(12).(*array.StringBuilder))
	f.c14.appendTo(b.Field(13).(*array.StringBuilder))
	f.c15.appendTo(b.Field(14).(*array.StringBuilder))

	return b.NewRecord(), nil
}

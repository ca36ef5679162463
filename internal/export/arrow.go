// Package export streams a ColumnStore as an Arrow IPC stream.
package export

import (
	"io"
	"math"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/pkg/errors"

	"f1insights/internal/engine"
)

// ContentType of the stream format.
const ContentType = "application/vnd.apache.arrow.stream"

// Schema maps number columns to nullable float64 and text columns to
// dictionary-free utf8.
func Schema(cs *engine.ColumnStore) *arrow.Schema {
	fields := make([]arrow.Field, len(cs.Columns))
	for i, c := range cs.Columns {
		typ := arrow.DataType(arrow.BinaryTypes.String)
		if c.Kind == engine.Number {
			typ = arrow.PrimitiveTypes.Float64
		}
		fields[i] = arrow.Field{Name: c.Name, Type: typ, Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// WriteArrow writes cs to w as a single record batch.
func WriteArrow(w io.Writer, cs *engine.ColumnStore) error {
	mem := memory.NewGoAllocator()
	schema := Schema(cs)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for i, c := range cs.Columns {
		switch fb := b.Field(i).(type) {
		case *array.Float64Builder:
			fb.Reserve(cs.Rows)
			for _, v := range c.Numbers {
				if math.IsNaN(v) {
					fb.AppendNull()
					continue
				}
				fb.Append(v)
			}
		case *array.StringBuilder:
			fb.Reserve(cs.Rows)
			for _, id := range c.IDs {
				fb.Append(c.Dict[id])
			}
		default:
			return errors.Errorf("column %q: unexpected builder %T", c.Name, fb)
		}
	}

	rec := b.NewRecord()
	defer rec.Release()

	wr := ipc.NewWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err := wr.Write(rec); err != nil {
		return errors.Wrap(err, "writing arrow record")
	}
	return errors.Wrap(wr.Close(), "closing arrow stream")
}

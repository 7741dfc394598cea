package exporter

import (
	"io"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/ipc"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/cockroachdb/errors"

	"salarydash/internal/engine"
)

// Schema returns the Arrow schema for a dataset: ano int32, usd float64, every
// other column utf8, in dataset column order.
func Schema(ds *engine.Dataset) *arrow.Schema {
	fields := make([]arrow.Field, len(ds.Header))
	for i, name := range ds.Header {
		var typ arrow.DataType = arrow.BinaryTypes.String
		switch name {
		case engine.ColYear:
			typ = arrow.PrimitiveTypes.Int32
		case engine.ColSalary:
			typ = arrow.PrimitiveTypes.Float64
		}
		fields[i] = arrow.Field{Name: name, Type: typ}
	}
	return arrow.NewSchema(fields, nil)
}

// WriteArrow writes the view as an Arrow IPC stream holding one record batch.
func WriteArrow(w io.Writer, v *engine.View) error {
	ds := v.Dataset()
	mem := memory.NewGoAllocator()
	schema := Schema(ds)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for j, name := range ds.Header {
		switch fb := b.Field(j).(type) {
		case *array.Int32Builder:
			fb.Reserve(v.Len())
			for i := 0; i < v.Len(); i++ {
				fb.Append(ds.Years[v.Index(i)])
			}
		case *array.Float64Builder:
			fb.Reserve(v.Len())
			for i := 0; i < v.Len(); i++ {
				fb.Append(ds.Salaries[v.Index(i)])
			}
		case *array.StringBuilder:
			fb.Reserve(v.Len())
			for i := 0; i < v.Len(); i++ {
				fb.Append(ds.Cell(v.Index(i), name))
			}
		}
	}

	rec := b.NewRecord()
	defer rec.Release()

	iw := ipc.NewWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err := iw.Write(rec); err != nil {
		return errors.Wrap(err, "write record batch")
	}
	return errors.Wrap(iw.Close(), "close arrow stream")
}

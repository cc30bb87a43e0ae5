package fixture

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Option controls which columns go into the fixture table
type Option struct {
	// WithFixedSizeBinary appends the fixedsizebinary column, which is not
	// part of the default eight columns.
	WithFixedSizeBinary bool
}

type column struct {
	name  string
	build func(memory.Allocator) (arrow.Array, error)
}

func builder[T arrow.Array](f func(memory.Allocator) (T, error)) func(memory.Allocator) (arrow.Array, error) {
	return func(mem memory.Allocator) (arrow.Array, error) {
		arr, err := f(mem)
		if err != nil {
			return nil, err
		}
		return arr, nil
	}
}

var defaultColumns = []column{
	{"fixedsizelist", builder(FixedSizeListArray)},
	{"struct", builder(StructArray)},
	{"binary", builder(BinaryArray)},
	{"string", builder(StringArray)},
	{"boolean", builder(BooleanArray)},
	{"null", builder(NullArray)},
	{"list", builder(ListArray)},
	{"extension", builder(ExtensionArray)},
}

var fixedSizeBinaryColumn = column{"fixedsizebinary", builder(FixedSizeBinaryArray)}

func (o Option) columns() []column {
	cols := append([]column{}, defaultColumns...)
	if o.WithFixedSizeBinary {
		cols = append(cols, fixedSizeBinaryColumn)
	}
	return cols
}

// ColumnNames returns fixture column names in table order
func ColumnNames(option Option) []string {
	cols := option.columns()
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.name
	}
	return names
}

// NewRecord builds every fixture column and assembles them into a single
// record batch. Caller owns the returned record.
func NewRecord(mem memory.Allocator, option Option) (arrow.Record, error) {
	cols := option.columns()
	fields := make([]arrow.Field, 0, len(cols))
	arrays := make([]arrow.Array, 0, len(cols))
	defer func() {
		for _, arr := range arrays {
			arr.Release()
		}
	}()

	var numRows int64 = -1
	for _, col := range cols {
		arr, err := col.build(mem)
		if err != nil {
			return nil, fmt.Errorf("failed to build column [%s]: %w", col.name, err)
		}
		arrays = append(arrays, arr)
		if numRows >= 0 && int64(arr.Len()) != numRows {
			return nil, fmt.Errorf("column [%s] has %d rows, expected %d", col.name, arr.Len(), numRows)
		}
		numRows = int64(arr.Len())
		fields = append(fields, arrow.Field{Name: col.name, Type: arr.DataType(), Nullable: true})
	}

	schema := arrow.NewSchema(fields, nil)
	return array.NewRecord(schema, arrays, numRows), nil
}

// NewTable is NewRecord wrapped into a single chunk table.
func NewTable(mem memory.Allocator, option Option) (arrow.Table, error) {
	rec, err := NewRecord(mem, option)
	if err != nil {
		return nil, err
	}
	defer rec.Release()
	return array.NewTableFromRecords(rec.Schema(), []arrow.Record{rec}), nil
}

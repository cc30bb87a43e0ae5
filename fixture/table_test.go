package fixture

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"
)

func TestColumnNames(t *testing.T) {
	require.Equal(t,
		[]string{"fixedsizelist", "struct", "binary", "string", "boolean", "null", "list", "extension"},
		ColumnNames(Option{}))
	require.Equal(t,
		[]string{"fixedsizelist", "struct", "binary", "string", "boolean", "null", "list", "extension", "fixedsizebinary"},
		ColumnNames(Option{WithFixedSizeBinary: true}))

	// defaults are not mutated by options
	require.Len(t, ColumnNames(Option{}), 8)
}

func TestNewRecord(t *testing.T) {
	testCases := map[string]struct {
		option  Option
		numCols int64
	}{
		"default":           {Option{}, 8},
		"fixed-size-binary": {Option{WithFixedSizeBinary: true}, 9},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
			defer mem.AssertSize(t, 0)

			rec, err := NewRecord(mem, tc.option)
			require.NoError(t, err)
			defer rec.Release()

			require.Equal(t, tc.numCols, rec.NumCols())
			require.Equal(t, int64(3), rec.NumRows())
			for i, name := range ColumnNames(tc.option) {
				require.Equal(t, name, rec.ColumnName(i))
				require.True(t, rec.Schema().Field(i).Nullable)
				require.True(t, arrow.TypeEqual(rec.Column(i).DataType(), rec.Schema().Field(i).Type))
			}
		})
	}
}

func TestNewTable(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	tbl, err := NewTable(mem, Option{})
	require.NoError(t, err)
	defer tbl.Release()

	require.Equal(t, int64(8), tbl.NumCols())
	require.Equal(t, int64(3), tbl.NumRows())
	require.Equal(t, "extension", tbl.Column(7).Name())
	require.Equal(t, arrow.EXTENSION, tbl.Column(7).DataType().ID())
	require.Len(t, tbl.Column(0).Data().Chunks(), 1)
}

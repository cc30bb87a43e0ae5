package inspect

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hangxie/arrow-fixtures/cmd/internal/testutils"
	pio "github.com/hangxie/arrow-fixtures/io"
)

func intPtr(i int) *int {
	return &i
}

func TestCmdError(t *testing.T) {
	arrowFile := testutils.WriteFixture(t, "table.arrow", pio.WriteOption{})

	testCases := map[string]struct {
		cmd    Cmd
		errMsg string
	}{
		"non-existent":      {Cmd{URI: "file/does/not/exist"}, "no such file or directory"},
		"column-only":       {Cmd{URI: arrowFile, Column: intPtr(0)}, "--column requires --batch"},
		"negative-batch":    {Cmd{URI: arrowFile, Batch: intPtr(-1)}, "invalid batch index -1"},
		"batch-too-large":   {Cmd{URI: arrowFile, Batch: intPtr(1)}, "batch index 1 out of range"},
		"negative-column":   {Cmd{URI: arrowFile, Batch: intPtr(0), Column: intPtr(-1)}, "column index -1 out of range"},
		"column-too-large":  {Cmd{URI: arrowFile, Batch: intPtr(0), Column: intPtr(8)}, "column index 8 out of range, batch has 8 columns"},
		"batch-and-missing": {Cmd{URI: "file/does/not/exist", Batch: intPtr(0)}, "no such file or directory"},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			err := tc.cmd.Run(zap.NewNop())
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestCmdFile(t *testing.T) {
	testCases := map[string]struct {
		fileName string
		format   string
	}{
		"arrow":   {"table.arrow", pio.FormatArrow},
		"stream":  {"table.arrows", pio.FormatArrowStream},
		"parquet": {"table.parquet", pio.FormatParquet},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			uri := testutils.WriteFixture(t, tc.fileName, pio.WriteOption{})
			stdout, stderr := testutils.CaptureStdoutStderr(func() {
				require.NoError(t, Cmd{URI: uri}.Run(zap.NewNop()))
			})
			require.Equal(t, "", stderr)

			var result struct {
				Format     string       `json:"format"`
				NumColumns int          `json:"numColumns"`
				NumBatches int          `json:"numBatches"`
				Batches    []batchBrief `json:"batches"`
			}
			require.NoError(t, json.Unmarshal([]byte(stdout), &result))
			require.Equal(t, tc.format, result.Format)
			require.Equal(t, 8, result.NumColumns)
			require.Equal(t, 1, result.NumBatches)
			require.Equal(t, []batchBrief{{Index: 0, NumRows: 3}}, result.Batches)
		})
	}
}

func TestCmdBatch(t *testing.T) {
	uri := testutils.WriteFixture(t, "table.arrow", pio.WriteOption{})
	stdout, _ := testutils.CaptureStdoutStderr(func() {
		require.NoError(t, Cmd{URI: uri, Batch: intPtr(0)}.Run(zap.NewNop()))
	})

	var result struct {
		Batch   int           `json:"batch"`
		NumRows int64         `json:"numRows"`
		Columns []columnBrief `json:"columns"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	require.Equal(t, 0, result.Batch)
	require.Equal(t, int64(3), result.NumRows)
	require.Len(t, result.Columns, 8)

	names := make([]string, len(result.Columns))
	for i, column := range result.Columns {
		require.Equal(t, i, column.Index)
		names[i] = column.Name
	}
	require.Equal(t, []string{"fixedsizelist", "struct", "binary", "string", "boolean", "null", "list", "extension"}, names)
	require.Equal(t, "fixed_size_list<item: uint8, nullable>[2]", result.Columns[0].Type)
	require.Equal(t, 3, result.Columns[5].NullCount)
	require.Equal(t, 0, result.Columns[0].NullCount)
}

func TestCmdColumn(t *testing.T) {
	uri := testutils.WriteFixture(t, "table.arrow", pio.WriteOption{})

	testCases := map[string]struct {
		column   int
		name     string
		values   string
		children int
	}{
		"fixedsizelist": {0, "fixedsizelist", `[[1,2],[3,4],[5,6]]`, 1},
		"struct":        {1, "struct", `[{"x":1,"y":5},{"x":2,"y":6},{"x":3,"y":7}]`, 2},
		"null":          {5, "null", `[null,null,null]`, 0},
		"list":          {6, "list", `[[1],[2,3],[4,5,6]]`, 1},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			stdout, _ := testutils.CaptureStdoutStderr(func() {
				require.NoError(t, Cmd{URI: uri, Batch: intPtr(0), Column: intPtr(tc.column)}.Run(zap.NewNop()))
			})

			var result struct {
				Name   string          `json:"name"`
				Layout ArrayLayout     `json:"layout"`
				Values json.RawMessage `json:"values"`
			}
			require.NoError(t, json.Unmarshal([]byte(stdout), &result))
			require.Equal(t, tc.name, result.Name)
			require.Equal(t, 3, result.Layout.Length)
			require.Len(t, result.Layout.Children, tc.children)
			require.JSONEq(t, tc.values, string(result.Values))
		})
	}
}

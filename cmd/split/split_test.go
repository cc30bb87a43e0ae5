package split

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hangxie/arrow-fixtures/cmd/cat"
	"github.com/hangxie/arrow-fixtures/cmd/internal/testutils"
	"github.com/hangxie/arrow-fixtures/fixture"
	pio "github.com/hangxie/arrow-fixtures/io"
)

// writeBatches writes the fixture table numBatches times into one file
func writeBatches(t *testing.T, fileName string, numBatches int) string {
	t.Helper()
	rec, err := fixture.NewRecord(memory.DefaultAllocator, fixture.Option{})
	require.NoError(t, err)
	defer rec.Release()

	records := make([]arrow.Record, numBatches)
	for i := range records {
		records[i] = rec
	}
	target := filepath.Join(t.TempDir(), fileName)
	require.NoError(t, pio.WriteRecords(target, pio.WriteOption{}, rec.Schema(), records, memory.DefaultAllocator))
	return target
}

func rowCount(t *testing.T, uri string) int64 {
	t.Helper()
	r, err := pio.NewFileReader(uri, pio.ReadOption{}, memory.DefaultAllocator)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, r.Close())
	}()
	numRows, err := r.NumRows()
	require.NoError(t, err)
	return numRows
}

func TestCmd(t *testing.T) {
	arrowFile := writeBatches(t, "table.arrow", 3)
	parquetFile := writeBatches(t, "table.parquet", 3)

	testCases := map[string]struct {
		cmd    Cmd
		result map[string]int64
		errMsg string
	}{
		// error cases
		"no-count":       {cmd: Cmd{NameFormat: "%d", URI: "dummy"}, errMsg: "needs either --file-count or --record-count"},
		"negative-count": {cmd: Cmd{NameFormat: "%d", RecordCount: -1, URI: "dummy"}, errMsg: "invalid file count 0 or record count -1"},
		"both-counts":    {cmd: Cmd{NameFormat: "%d", RecordCount: 1, FileCount: 2, URI: arrowFile}, errMsg: "--file-count and --record-count can't be used together"},
		"name-format":    {cmd: Cmd{NameFormat: "ut-%%arrow", RecordCount: 10, URI: arrowFile}, errMsg: "lack of useable verb"},
		"source-file":    {cmd: Cmd{NameFormat: "%d", RecordCount: 10, URI: "does/not/exist"}, errMsg: "failed to open"},
		"count-source":   {cmd: Cmd{NameFormat: "%d", FileCount: 2, URI: "does/not/exist"}, errMsg: "failed to open"},
		"target-file":    {cmd: Cmd{NameFormat: "dummy://%d.arrow", RecordCount: 2, URI: arrowFile}, errMsg: "unknown location scheme"},
		"target-codec":   {cmd: Cmd{NameFormat: "%d.arrow", RecordCount: 2, URI: arrowFile, WriteOption: pio.WriteOption{Compression: "GZIP"}}, errMsg: "[GZIP] compression is not supported by arrow format"},
		// good cases, NameFormat is placed under a temporary directory
		"record-count": {
			cmd:    Cmd{NameFormat: "ut-%d.arrow", RecordCount: 2, URI: arrowFile},
			result: map[string]int64{"ut-0.arrow": 2, "ut-1.arrow": 2, "ut-2.arrow": 2, "ut-3.arrow": 2, "ut-4.arrow": 1},
		},
		"record-count-aligned": {
			cmd:    Cmd{NameFormat: "ut-%d.arrows", RecordCount: 3, URI: parquetFile},
			result: map[string]int64{"ut-0.arrows": 3, "ut-1.arrows": 3, "ut-2.arrows": 3},
		},
		"file-count": {
			cmd:    Cmd{NameFormat: "ut-%d.parquet", FileCount: 2, URI: arrowFile},
			result: map[string]int64{"ut-0.parquet": 5, "ut-1.parquet": 4},
		},
		"file-count-uneven": {
			cmd:    Cmd{NameFormat: "ut-%02x.arrow", FileCount: 4, URI: parquetFile},
			result: map[string]int64{"ut-00.arrow": 3, "ut-01.arrow": 2, "ut-02.arrow": 2, "ut-03.arrow": 2},
		},
		"more-files-than-rows": {
			cmd:    Cmd{NameFormat: "ut-%d.arrow", FileCount: 20, URI: arrowFile},
			result: map[string]int64{"ut-0.arrow": 1, "ut-1.arrow": 1, "ut-2.arrow": 1, "ut-3.arrow": 1, "ut-4.arrow": 1, "ut-5.arrow": 1, "ut-6.arrow": 1, "ut-7.arrow": 1, "ut-8.arrow": 1},
		},
		"one-result-record-count": {
			cmd:    Cmd{NameFormat: "ut-%d.arrow", RecordCount: 20, URI: arrowFile},
			result: map[string]int64{"ut-0.arrow": 9},
		},
		"one-result-file-count": {
			cmd:    Cmd{NameFormat: "ut-%d.arrow", FileCount: 1, URI: arrowFile},
			result: map[string]int64{"ut-0.arrow": 9},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			cmd := tc.cmd
			if tc.errMsg != "" {
				if !strings.Contains(cmd.NameFormat, "://") {
					cmd.NameFormat = filepath.Join(t.TempDir(), cmd.NameFormat)
				}
				err := cmd.Run(zap.NewNop())
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.errMsg)
				return
			}

			t.Parallel()
			tempDir := t.TempDir()
			cmd.NameFormat = filepath.Join(tempDir, cmd.NameFormat)
			require.NoError(t, cmd.Run(zap.NewNop()))
			files, _ := os.ReadDir(tempDir)
			require.Equal(t, len(tc.result), len(files))

			for _, file := range files {
				expected, ok := tc.result[file.Name()]
				require.True(t, ok, file.Name())
				require.Equal(t, expected, rowCount(t, filepath.Join(tempDir, file.Name())), file.Name())
			}
		})
	}

	t.Run("content", func(t *testing.T) {
		tempDir := t.TempDir()
		splitCmd := Cmd{
			URI:         testutils.WriteFixture(t, "table.arrow", pio.WriteOption{}),
			RecordCount: 1,
			NameFormat:  filepath.Join(tempDir, "ut-%d.arrow"),
		}
		require.NoError(t, splitCmd.Run(zap.NewNop()))

		rows := strings.SplitAfter(testutils.LoadExpected(t, "../../testdata/golden/cat-jsonl.jsonl"), "\n")
		for i := range 3 {
			catCmd := cat.Cmd{Format: "jsonl", URI: filepath.Join(tempDir, fmt.Sprintf("ut-%d.arrow", i))}
			stdout, _ := testutils.CaptureStdoutStderr(func() {
				require.NoError(t, catCmd.Run(zap.NewNop()))
			})
			require.Equal(t, rows[i], stdout)
		}
	})
}

func TestCheckNameFormat(t *testing.T) {
	testCases := map[string]error{
		// good
		"%b":        nil,
		"%3d":       nil,
		"%03o":      nil,
		"%x":        nil,
		"%3X":       nil,
		"%05d":      nil,
		"%08x":      nil,
		"%012o":     nil,
		"100%%-%d":  nil,
		"a/%d.pq":   nil,
		"%06d.feat": nil,
		// bad
		"foobar":  fmt.Errorf("lack of useable ver"),
		"%%":      fmt.Errorf("lack of useable ver"),
		"%s":      fmt.Errorf("is not an allowed format verb"),
		"%0.7f":   fmt.Errorf("is not an allowed format verb"),
		"%d-%02x": fmt.Errorf("has more than one useable verb"),
	}

	for name, expected := range testCases {
		t.Run(name, func(t *testing.T) {
			err := checkNameFormat(name)
			if expected != nil {
				require.Error(t, err)
				require.Contains(t, err.Error(), expected.Error())
			} else {
				require.NoError(t, err)
			}
		})
	}
}

package split

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	pio "github.com/hangxie/arrow-fixtures/io"
)

var formatVerb = regexp.MustCompile(`%[-+# 0-9.]*[a-zA-Z]`)

// current writer state
type trunkWriter struct {
	fileIndex   int64
	targetFile  string
	writer      pio.RecordWriter
	recordCount int64
	quota       int64
}

// Cmd is a kong command for split
type Cmd struct {
	FileCount   int64  `xor:"count" help:"Generate this number of result files, trailing ones are skipped if there are not enough rows."`
	NameFormat  string `help:"Format to populate target file names" default:"result-%06d.arrow"`
	RecordCount int64  `xor:"count" help:"Result files will have at most this number of records"`
	URI         string `arg:"" predictor:"file" help:"URI of Arrow or Parquet file."`
	pio.ReadOption
	pio.WriteOption

	current trunkWriter
}

// checkNameFormat makes sure there is exactly one integer verb so every
// result file gets a distinct name
func checkNameFormat(nameFormat string) error {
	verbs := formatVerb.FindAllString(strings.ReplaceAll(nameFormat, "%%", ""), -1)
	switch len(verbs) {
	case 0:
		return fmt.Errorf("[%s] lack of useable verb", nameFormat)
	case 1:
	default:
		return fmt.Errorf("[%s] has more than one useable verb", nameFormat)
	}
	if !strings.ContainsAny(verbs[0][len(verbs[0])-1:], "bdoxX") {
		return fmt.Errorf("[%s] is not an allowed format verb", verbs[0])
	}
	return nil
}

// quota returns how many rows the fileIndex-th result file holds
func (c *Cmd) quota(fileIndex, numRows int64) int64 {
	if c.FileCount == 0 {
		return c.RecordCount
	}
	quota := numRows / c.FileCount
	if fileIndex < numRows%c.FileCount {
		quota++
	}
	return quota
}

func (c *Cmd) countRows(mem memory.Allocator) (int64, error) {
	if c.FileCount == 0 {
		return 0, nil
	}
	// counting drains IPC readers, use a separate one
	reader, err := pio.NewFileReader(c.URI, c.ReadOption, mem)
	if err != nil {
		return 0, fmt.Errorf("failed to open [%s]: %w", c.URI, err)
	}
	defer func() {
		_ = reader.Close()
	}()
	return reader.NumRows()
}

func (c *Cmd) closeWriter() error {
	if c.current.writer == nil {
		return nil
	}
	writer := c.current.writer
	c.current.writer = nil
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close [%s]: %w", c.current.targetFile, err)
	}
	return nil
}

func (c *Cmd) switchWriter(schema *arrow.Schema, numRows int64, mem memory.Allocator) error {
	if err := c.closeWriter(); err != nil {
		return err
	}

	var err error
	c.current.targetFile = fmt.Sprintf(c.NameFormat, c.current.fileIndex)
	c.current.writer, err = pio.NewRecordWriter(c.current.targetFile, c.WriteOption, schema, mem)
	if err != nil {
		return fmt.Errorf("failed to write to [%s]: %w", c.current.targetFile, err)
	}
	c.current.quota = c.quota(c.current.fileIndex, numRows)
	c.current.fileIndex++
	c.current.recordCount = 0

	return nil
}

// Run does actual split job
func (c Cmd) Run(logger *zap.Logger) (retErr error) {
	if c.FileCount == 0 && c.RecordCount == 0 {
		return fmt.Errorf("needs either --file-count or --record-count")
	}
	if c.FileCount != 0 && c.RecordCount != 0 {
		return fmt.Errorf("--file-count and --record-count can't be used together")
	}
	if c.FileCount < 0 || c.RecordCount < 0 {
		return fmt.Errorf("invalid file count %d or record count %d", c.FileCount, c.RecordCount)
	}
	if err := checkNameFormat(c.NameFormat); err != nil {
		return err
	}

	mem := memory.DefaultAllocator
	numRows, err := c.countRows(mem)
	if err != nil {
		return err
	}

	reader, err := pio.NewFileReader(c.URI, c.ReadOption, mem)
	if err != nil {
		return fmt.Errorf("failed to open [%s]: %w", c.URI, err)
	}
	defer func() {
		_ = reader.Close()
	}()
	defer func() {
		if err := c.closeWriter(); err != nil && retErr == nil {
			retErr = err
		}
	}()

	c.current = trunkWriter{}
	records := reader.Records()
	for records.Next() {
		rec := records.Record()
		for offset := int64(0); offset < rec.NumRows(); {
			if c.current.writer == nil || c.current.recordCount == c.current.quota {
				if err := c.switchWriter(rec.Schema(), numRows, mem); err != nil {
					return err
				}
				logger.Debug("split target opened", zap.String("uri", c.current.targetFile), zap.Int64("quota", c.current.quota))
			}
			size := min(rec.NumRows()-offset, c.current.quota-c.current.recordCount)
			slice := rec.NewSlice(offset, offset+size)
			err := c.current.writer.Write(slice)
			slice.Release()
			if err != nil {
				return fmt.Errorf("failed to write data to [%s]: %w", c.current.targetFile, err)
			}
			c.current.recordCount += size
			offset += size
		}
	}
	if err := records.Err(); err != nil {
		return fmt.Errorf("failed to read from [%s]: %w", c.URI, err)
	}

	return nil
}

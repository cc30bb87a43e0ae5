package rowcount

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	pio "github.com/hangxie/arrow-fixtures/io"
)

// Cmd is a kong command for rowcount
type Cmd struct {
	URI string `arg:"" predictor:"file" help:"URI of Arrow or Parquet file."`
	pio.ReadOption
}

// Run does actual rowcount job
func (c Cmd) Run(logger *zap.Logger) error {
	reader, err := pio.NewFileReader(c.URI, c.ReadOption, memory.DefaultAllocator)
	if err != nil {
		return err
	}
	defer func() {
		_ = reader.Close()
	}()

	numRows, err := reader.NumRows()
	if err != nil {
		return err
	}
	logger.Debug("rows counted", zap.String("uri", c.URI), zap.String("format", reader.Format), zap.Int64("rows", numRows))

	fmt.Println(numRows)
	return nil
}

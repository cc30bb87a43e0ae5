package schema

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	pio "github.com/hangxie/arrow-fixtures/io"
	pschema "github.com/hangxie/arrow-fixtures/schema"
)

var (
	formatRaw   = "raw"
	formatJSON  = "json"
	formatArrow = "arrow"
)

// Cmd is a kong command for schema
type Cmd struct {
	Format string `short:"f" help:"Schema format (raw/json/arrow)." enum:"raw,json,arrow" default:"json"`
	URI    string `arg:"" predictor:"file" help:"URI of Arrow or Parquet file."`
	pio.ReadOption
}

// Run does actual schema job
func (c Cmd) Run(logger *zap.Logger) error {
	reader, err := pio.NewFileReader(c.URI, c.ReadOption, memory.DefaultAllocator)
	if err != nil {
		return err
	}
	defer func() {
		_ = reader.Close()
	}()
	logger.Debug("schema loaded", zap.String("uri", c.URI), zap.String("format", reader.Format))

	switch c.Format {
	case formatRaw:
		schema, _ := json.Marshal(pschema.NewSchemaTree(reader.Schema()))
		fmt.Println(string(schema))
	case formatJSON:
		fmt.Println(pschema.NewSchemaTree(reader.Schema()).JSONSchema())
	case formatArrow:
		fmt.Println(reader.Schema().String())
	default:
		return fmt.Errorf("unknown schema format [%s]", c.Format)
	}

	return nil
}

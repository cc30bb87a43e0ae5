package size

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/arrow/util"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	pio "github.com/hangxie/arrow-fixtures/io"
)

const (
	queryRaw    = "raw"
	queryMemory = "memory"
	queryFooter = "footer"
	queryAll    = "all"
)

// Cmd is a kong command for size
type Cmd struct {
	Query string `short:"q" help:"Size to query (raw/memory/footer/all)." enum:"raw,memory,footer,all" default:"raw"`
	JSON  bool   `short:"j" help:"Output in JSON format." default:"false"`
	URI   string `arg:"" predictor:"file" help:"URI of Arrow or Parquet file."`
	pio.ReadOption
}

// Run does actual size job
func (c Cmd) Run(logger *zap.Logger) error {
	switch c.Query {
	case queryRaw, queryMemory, queryFooter, queryAll:
	default:
		return fmt.Errorf("unknown query type: [%s]", c.Query)
	}

	reader, err := pio.NewFileReader(c.URI, c.ReadOption, memory.DefaultAllocator)
	if err != nil {
		return err
	}
	defer func() {
		_ = reader.Close()
	}()

	rawSize, err := reader.FileSize()
	if err != nil {
		return err
	}
	footerSize, err := reader.FooterSize()
	if err != nil {
		return err
	}

	memorySize := int64(0)
	if c.Query == queryMemory || c.Query == queryAll {
		// decoding every batch is only needed for memory size
		records := reader.Records()
		for records.Next() {
			memorySize += util.TotalRecordSize(records.Record())
		}
		if err := records.Err(); err != nil {
			return fmt.Errorf("failed to read record batch: %w", err)
		}
	}
	logger.Debug("size collected", zap.String("uri", c.URI), zap.String("format", reader.Format))

	var size struct {
		Raw    *int64  `json:",omitempty"`
		Memory *int64  `json:",omitempty"`
		Footer *uint32 `json:",omitempty"`
	}

	switch c.Query {
	case queryRaw:
		if !c.JSON {
			fmt.Println(rawSize)
			return nil
		}
		size.Raw = &rawSize
	case queryMemory:
		if !c.JSON {
			fmt.Println(memorySize)
			return nil
		}
		size.Memory = &memorySize
	case queryFooter:
		if !c.JSON {
			fmt.Println(footerSize)
			return nil
		}
		size.Footer = &footerSize
	case queryAll:
		if !c.JSON {
			fmt.Println(rawSize, memorySize, footerSize)
			return nil
		}
		size.Footer = &footerSize
		size.Raw = &rawSize
		size.Memory = &memorySize
	}

	buf, _ := json.Marshal(size)
	fmt.Println(string(buf))

	return nil
}

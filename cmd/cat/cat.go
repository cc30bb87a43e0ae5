package cat

import (
	"bytes"
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	pio "github.com/hangxie/arrow-fixtures/io"
)

// Cmd is a kong command for cat
type Cmd struct {
	Format string `short:"f" help:"output format (json/jsonl)" enum:"json,jsonl" default:"json"`
	Limit  uint64 `short:"l" help:"Max number of rows to output, 0 means no limit." default:"0"`
	Skip   int64  `short:"k" help:"Skip rows before apply other logics." default:"0"`
	URI    string `arg:"" predictor:"file" help:"URI of Arrow or Parquet file."`
	pio.ReadOption
}

var delimiter = map[string]struct {
	begin         string
	lineDelimiter string
	end           string
}{
	"json":  {"[", ",", "]"},
	"jsonl": {"", "\n", ""},
}

// Run does actual cat job
func (c Cmd) Run(logger *zap.Logger) error {
	if c.Skip < 0 {
		return fmt.Errorf("invalid skip %d, needs to be greater than or equal to 0", c.Skip)
	}
	if c.Limit == 0 {
		c.Limit = ^uint64(0)
	}
	if _, ok := delimiter[c.Format]; !ok {
		return fmt.Errorf("unknown format: [%s]", c.Format)
	}

	fileReader, err := pio.NewFileReader(c.URI, c.ReadOption, memory.DefaultAllocator)
	if err != nil {
		return err
	}
	defer func() {
		_ = fileReader.Close()
	}()
	logger.Debug("reading rows", zap.String("uri", c.URI), zap.String("format", fileReader.Format))

	return c.outputRows(fileReader)
}

// encodeRow keeps column order, encoding a map would sort the keys
func encodeRow(rec arrow.Record, row int) (string, error) {
	buf := new(bytes.Buffer)
	buf.WriteByte('{')
	for col, field := range rec.Schema().Fields() {
		if col > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(field.Name)
		if err != nil {
			return "", err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(rec.Column(col).GetOneForMarshal(row))
		if err != nil {
			return "", fmt.Errorf("failed to encode field [%s]: %w", field.Name, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.String(), nil
}

func (c Cmd) printer(ctx context.Context, outputChan chan string) error {
	fmt.Print(delimiter[c.Format].begin)
	defer func() {
		fmt.Print(delimiter[c.Format].end + "\n")
	}()

	isFirstRow := true
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case formattedRow, more := <-outputChan:
			if !more {
				return nil
			}

			if isFirstRow {
				isFirstRow = false
			} else {
				fmt.Print(delimiter[c.Format].lineDelimiter)
			}
			fmt.Print(formattedRow)
		}
	}
}

func (c Cmd) encoder(ctx context.Context, fileReader *pio.FileReader, outputChan chan string) error {
	defer close(outputChan)

	records := fileReader.Records()
	skip := c.Skip
	for counter := uint64(0); counter < c.Limit && records.Next(); {
		rec := records.Record()
		start := int64(0)
		if skip > 0 {
			start = min(skip, rec.NumRows())
			skip -= start
		}
		for row := start; row < rec.NumRows() && counter < c.Limit; row++ {
			formattedRow, err := encodeRow(rec, int(row))
			if err != nil {
				return fmt.Errorf("failed to cat: %w", err)
			}
			select {
			case outputChan <- formattedRow:
				counter++
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	if err := records.Err(); err != nil {
		return fmt.Errorf("failed to cat: %w", err)
	}
	return nil
}

func (c Cmd) outputRows(fileReader *pio.FileReader) error {
	g, gctx := errgroup.WithContext(context.Background())
	outputChan := make(chan string, 64)

	g.Go(func() error {
		return c.printer(gctx, outputChan)
	})
	g.Go(func() error {
		return c.encoder(gctx, fileReader, outputChan)
	})

	return g.Wait()
}

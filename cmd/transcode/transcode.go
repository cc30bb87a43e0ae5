package transcode

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	pio "github.com/hangxie/arrow-fixtures/io"
)

// Cmd is a kong command for transcode
type Cmd struct {
	Columns []string `help:"Top level columns to keep in given order, all columns are kept if not specified."`
	Source  string   `short:"s" predictor:"file" help:"Source Arrow or Parquet file to transcode." required:"true"`
	URI     string   `arg:"" predictor:"file" help:"URI of output file."`
	pio.ReadOption
	pio.WriteOption
}

// projection returns the output schema and index of each kept column
func (c Cmd) projection(schema *arrow.Schema) (*arrow.Schema, []int, error) {
	if len(c.Columns) == 0 {
		return schema, nil, nil
	}

	fields := make([]arrow.Field, len(c.Columns))
	indices := make([]int, len(c.Columns))
	seen := map[string]struct{}{}
	for i, name := range c.Columns {
		if _, found := seen[name]; found {
			return nil, nil, fmt.Errorf("duplicate column [%s]", name)
		}
		seen[name] = struct{}{}

		found := schema.FieldIndices(name)
		if len(found) == 0 {
			return nil, nil, fmt.Errorf("column [%s] does not exist in [%s]", name, c.Source)
		}
		indices[i] = found[0]
		fields[i] = schema.Field(found[0])
	}
	md := schema.Metadata()
	return arrow.NewSchema(fields, &md), indices, nil
}

// Run does actual transcode job
func (c Cmd) Run(logger *zap.Logger) (retErr error) {
	if c.Source == c.URI {
		return fmt.Errorf("source and target cannot be the same [%s]", c.URI)
	}

	mem := memory.DefaultAllocator
	fileReader, err := pio.NewFileReader(c.Source, c.ReadOption, mem)
	if err != nil {
		return fmt.Errorf("failed to read from [%s]: %w", c.Source, err)
	}
	defer func() {
		_ = fileReader.Close()
	}()

	schema, indices, err := c.projection(fileReader.Schema())
	if err != nil {
		return err
	}

	var transform func(arrow.Record) (arrow.Record, error)
	if indices != nil {
		transform = func(rec arrow.Record) (arrow.Record, error) {
			columns := make([]arrow.Array, len(indices))
			for i, index := range indices {
				columns[i] = rec.Column(index)
			}
			return array.NewRecord(schema, columns, rec.NumRows()), nil
		}
	}

	fileWriter, err := pio.NewRecordWriter(c.URI, c.WriteOption, schema, mem)
	if err != nil {
		return fmt.Errorf("failed to write to [%s]: %w", c.URI, err)
	}
	defer func() {
		if err := fileWriter.Close(); err != nil && retErr == nil {
			retErr = fmt.Errorf("failed to close [%s]: %w", c.URI, err)
		}
	}()

	logger.Debug("transcoding",
		zap.String("source", c.Source),
		zap.String("source-format", fileReader.Format),
		zap.String("uri", c.URI),
		zap.String("compression", c.Compression),
		zap.Int("columns", schema.NumFields()))

	writers := map[string]pio.RecordWriter{c.URI: fileWriter}
	if err := pio.RunPipeline(context.Background(), fileReader.Records(), writers, c.Source, transform); err != nil {
		return err
	}
	logger.Info("transcoded", zap.String("source", c.Source), zap.String("uri", c.URI))
	return nil
}

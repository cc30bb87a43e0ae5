package importcmd

import (
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	pio "github.com/hangxie/arrow-fixtures/io"
	pschema "github.com/hangxie/arrow-fixtures/schema"
)

const importChunkSize = 1024

// Cmd is a kong command for import
type Cmd struct {
	Format     string `name:"source-format" help:"Source file formats (csv/jsonl)." short:"f" enum:"csv,jsonl" default:"jsonl"`
	Schema     string `required:"" short:"m" predictor:"file" help:"Arrow or Parquet file to take schema from."`
	SkipHeader bool   `help:"Skip first line of CSV files" default:"false"`
	Source     string `required:"" short:"s" predictor:"file" help:"Source file name."`
	URI        string `arg:"" predictor:"file" help:"URI of output file."`
	pio.ReadOption
	pio.WriteOption
}

func (c Cmd) loadSchema() (*arrow.Schema, error) {
	reader, err := pio.NewFileReader(c.Schema, c.ReadOption, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema from [%s]: %w", c.Schema, err)
	}
	defer func() {
		_ = reader.Close()
	}()
	return reader.Schema(), nil
}

func checkCSVSchema(schema *arrow.Schema) error {
	root := pschema.NewSchemaTree(schema)
	if len(root.Children) == 0 {
		return nil
	}
	columns := root.GetPathMap()
	for _, leaf := range root.Leaves() {
		column := columns[leaf.Path[0]]
		if len(leaf.Path) > 1 || column.Type == arrow.STRUCT.String() {
			return fmt.Errorf("CSV supports flat schema only, [%s] is %s", column.Name, column.Type)
		}
		if leaf.ExtensionName != "" {
			return fmt.Errorf("CSV does not support extension column [%s]", leaf.Name)
		}
	}
	return nil
}

func (c Cmd) newRecordReader(src io.Reader, schema *arrow.Schema, mem memory.Allocator) (array.RecordReader, error) {
	switch c.Format {
	case "csv":
		if err := checkCSVSchema(schema); err != nil {
			return nil, err
		}
		return csv.NewReader(src, schema,
			csv.WithAllocator(mem),
			csv.WithChunk(importChunkSize),
			csv.WithHeader(c.SkipHeader),
		), nil
	case "jsonl":
		return array.NewJSONReader(src, schema,
			array.WithAllocator(mem),
			array.WithChunk(importChunkSize),
		), nil
	}
	return nil, fmt.Errorf("[%s] is not a recognized source format", c.Format)
}

// Run does actual import job
func (c Cmd) Run(logger *zap.Logger) (retErr error) {
	schema, err := c.loadSchema()
	if err != nil {
		return err
	}

	src, err := pio.NewSourceReader(c.Source, c.ReadOption)
	if err != nil {
		return fmt.Errorf("failed to open source file [%s]: %w", c.Source, err)
	}
	defer func() {
		_ = src.Close()
	}()
	size, err := src.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("failed to open source file [%s]: %w", c.Source, err)
	}

	mem := memory.DefaultAllocator
	records, err := c.newRecordReader(io.NewSectionReader(src, 0, size), schema, mem)
	if err != nil {
		return err
	}
	defer records.Release()

	fileWriter, err := pio.NewRecordWriter(c.URI, c.WriteOption, schema, mem)
	if err != nil {
		return fmt.Errorf("failed to write to [%s]: %w", c.URI, err)
	}
	defer func() {
		if err := fileWriter.Close(); err != nil && retErr == nil {
			retErr = fmt.Errorf("failed to close [%s]: %w", c.URI, err)
		}
	}()

	logger.Debug("importing", zap.String("source", c.Source), zap.String("format", c.Format), zap.String("uri", c.URI))
	writers := map[string]pio.RecordWriter{c.URI: fileWriter}
	return pio.RunPipeline(context.Background(), records, writers, c.Source, nil)
}

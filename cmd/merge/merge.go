package merge

import (
	"context"
	"fmt"
	"runtime"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	pio "github.com/hangxie/arrow-fixtures/io"
	pschema "github.com/hangxie/arrow-fixtures/schema"
)

const sourceBufferSize = 16

// Cmd is a kong command for merge
type Cmd struct {
	Concurrent bool     `help:"enable concurrent processing" default:"false"`
	Source     []string `short:"s" predictor:"file" help:"Files to be merged."`
	URI        string   `arg:"" predictor:"file" help:"URI of output file."`
	pio.ReadOption
	pio.WriteOption
}

// Run does actual merge job
func (c Cmd) Run(logger *zap.Logger) (retErr error) {
	if len(c.Source) <= 1 {
		return fmt.Errorf("needs at least 2 source files")
	}

	mem := memory.DefaultAllocator
	fileReaders, schema, err := c.openSources(mem)
	defer func() {
		for _, fileReader := range fileReaders {
			_ = fileReader.Close()
		}
	}()
	if err != nil {
		return err
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

	// each source has its own channel, forwarding drains them in source order
	g, gctx := errgroup.WithContext(context.Background())
	writerChan := make(chan arrow.Record)
	sourceChans := make([]chan arrow.Record, len(fileReaders))
	for i := range sourceChans {
		sourceChans[i] = make(chan arrow.Record, sourceBufferSize)
	}

	g.Go(func() error {
		return pio.PipelineWriter(gctx, map[string]pio.RecordWriter{c.URI: fileWriter}, writerChan)
	})

	g.Go(func() error {
		readerGroup := new(errgroup.Group)
		if c.Concurrent {
			readerGroup.SetLimit(runtime.NumCPU())
		} else {
			readerGroup.SetLimit(1)
		}
		for i := range fileReaders {
			readerGroup.Go(func() error {
				defer close(sourceChans[i])
				logger.Debug("merging", zap.String("source", c.Source[i]), zap.String("format", fileReaders[i].Format))
				return pio.PipelineReader(gctx, fileReaders[i].Records(), sourceChans[i], c.Source[i], nil)
			})
		}
		return readerGroup.Wait()
	})

	g.Go(func() error {
		defer close(writerChan)
		return forward(gctx, sourceChans, writerChan)
	})

	return g.Wait()
}

// forward moves records from sources to writerChan, one source after another
func forward(ctx context.Context, sources []chan arrow.Record, writerChan chan arrow.Record) error {
	for _, source := range sources {
		for rec := range source {
			select {
			case writerChan <- rec:
			case <-ctx.Done():
				rec.Release()
				return ctx.Err()
			}
		}
	}
	return nil
}

// openSources returns every reader opened so far even on error, caller
// closes them.
func (c Cmd) openSources(mem memory.Allocator) ([]*pio.FileReader, *arrow.Schema, error) {
	var schema *arrow.Schema
	var rootSchema string
	fileReaders := make([]*pio.FileReader, 0, len(c.Source))
	for _, source := range c.Source {
		fileReader, err := pio.NewFileReader(source, c.ReadOption, mem)
		if err != nil {
			return fileReaders, nil, fmt.Errorf("failed to read from [%s]: %w", source, err)
		}
		fileReaders = append(fileReaders, fileReader)

		currSchema := pschema.NewSchemaTree(fileReader.Schema()).JSONSchema()
		if schema == nil {
			schema = fileReader.Schema()
			rootSchema = currSchema
			continue
		}

		if rootSchema != currSchema {
			return fileReaders, nil, fmt.Errorf("[%s] does not have same schema as previous files", source)
		}
	}

	return fileReaders, schema, nil
}

package io

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"golang.org/x/sync/errgroup"
)

// PipelineWriter reads records from writerChan and writes them to all writers,
// records are released once written.
func PipelineWriter(ctx context.Context, writers map[string]RecordWriter, writerChan chan arrow.Record) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rec, more := <-writerChan:
			if !more {
				return nil
			}
			for target, w := range writers {
				if err := w.Write(rec); err != nil {
					rec.Release()
					return fmt.Errorf("failed to write data to [%s]: %w", target, err)
				}
			}
			rec.Release()
		}
	}
}

// RunPipeline copies record batches from reader to all writers, reading and
// writing run in parallel. If either side fails, the shared context is
// cancelled so the other side exits promptly. Writers are not closed.
func RunPipeline(ctx context.Context, reader array.RecordReader, writers map[string]RecordWriter, source string, transform func(arrow.Record) (arrow.Record, error)) error {
	g, gctx := errgroup.WithContext(ctx)
	writerChan := make(chan arrow.Record)

	g.Go(func() error {
		return PipelineWriter(gctx, writers, writerChan)
	})

	g.Go(func() error {
		defer close(writerChan)
		return PipelineReader(gctx, reader, writerChan, source, transform)
	})

	return g.Wait()
}

// PipelineReader reads record batches from reader, optionally transforms each
// one, and sends them to writerChan. Every record sent carries its own
// reference, transform must return a new reference as well. Pass nil for
// transform to skip transformation.
func PipelineReader(ctx context.Context, reader array.RecordReader, writerChan chan arrow.Record, source string, transform func(arrow.Record) (arrow.Record, error)) error {
	for reader.Next() {
		rec := reader.Record()
		rec.Retain()
		if transform != nil {
			converted, err := transform(rec)
			rec.Release()
			if err != nil {
				return fmt.Errorf("failed to convert record batch: %w", err)
			}
			rec = converted
		}
		select {
		case <-ctx.Done():
			rec.Release()
			return ctx.Err()
		case writerChan <- rec:
		}
	}
	if err := reader.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read from [%s]: %w", source, err)
	}
	return nil
}

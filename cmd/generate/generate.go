package generate

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hangxie/arrow-fixtures/fixture"
	pio "github.com/hangxie/arrow-fixtures/io"
)

// Cmd is a kong command for generate
type Cmd struct {
	Also                []string `predictor:"file" help:"Additional URIs to write the same table to."`
	URI                 string   `arg:"" optional:"" predictor:"file" help:"URI of output file." default:"table.arrow"`
	WithFixedSizeBinary bool     `help:"Append a fixed_size_binary[1] column named fixedsizebinary." default:"false"`
	pio.WriteOption
}

// Run does actual generate job
func (c Cmd) Run(logger *zap.Logger) error {
	targets := []string{c.URI}
	seen := map[string]struct{}{c.URI: {}}
	for _, target := range c.Also {
		if target == "" {
			continue
		}
		if _, found := seen[target]; found {
			return fmt.Errorf("duplicate output [%s]", target)
		}
		seen[target] = struct{}{}
		targets = append(targets, target)
	}

	mem := memory.DefaultAllocator
	rec, err := fixture.NewRecord(mem, fixture.Option{WithFixedSizeBinary: c.WithFixedSizeBinary})
	if err != nil {
		return fmt.Errorf("failed to build fixture table: %w", err)
	}
	defer rec.Release()
	logger.Debug("fixture table built",
		zap.Strings("columns", fixture.ColumnNames(fixture.Option{WithFixedSizeBinary: c.WithFixedSizeBinary})),
		zap.Int64("rows", rec.NumRows()))

	// record batches are immutable so all writers share rec
	var g errgroup.Group
	for _, target := range targets {
		g.Go(func() error {
			logger.Debug("writing fixture",
				zap.String("uri", target),
				zap.String("format", c.Format),
				zap.String("compression", c.Compression))
			if err := pio.WriteRecords(target, c.WriteOption, rec.Schema(), []arrow.Record{rec}, mem); err != nil {
				return err
			}
			logger.Info("fixture written", zap.String("uri", target))
			return nil
		})
	}
	return g.Wait()
}

package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/posener/complete"
	"github.com/willabides/kongplete"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hangxie/arrow-fixtures/cmd/cat"
	"github.com/hangxie/arrow-fixtures/cmd/generate"
	importcmd "github.com/hangxie/arrow-fixtures/cmd/import"
	"github.com/hangxie/arrow-fixtures/cmd/inspect"
	"github.com/hangxie/arrow-fixtures/cmd/merge"
	"github.com/hangxie/arrow-fixtures/cmd/meta"
	"github.com/hangxie/arrow-fixtures/cmd/rowcount"
	"github.com/hangxie/arrow-fixtures/cmd/schema"
	"github.com/hangxie/arrow-fixtures/cmd/size"
	"github.com/hangxie/arrow-fixtures/cmd/split"
	"github.com/hangxie/arrow-fixtures/cmd/transcode"
	"github.com/hangxie/arrow-fixtures/cmd/version"
)

type cli struct {
	Verbose          bool                         `short:"v" help:"Log debug messages to stderr." env:"ARROW_FIXTURES_VERBOSE" default:"false"`
	Generate         generate.Cmd                 `cmd:"" default:"withargs" help:"Writes the fixture table, table.arrow by default."`
	Cat              cat.Cmd                      `cmd:"" help:"Prints the content of a fixture file, data only."`
	Import           importcmd.Cmd                `cmd:"" help:"Create Arrow or Parquet file from CSV or JSONL."`
	Inspect          inspect.Cmd                  `cmd:"" help:"Inspect record batches and column layout."`
	Merge            merge.Cmd                    `cmd:"" help:"Merge multiple files with the same schema into one."`
	Meta             meta.Cmd                     `cmd:"" help:"Prints the container metadata."`
	RowCount         rowcount.Cmd                 `cmd:"" help:"Prints the count of rows."`
	Schema           schema.Cmd                   `cmd:"" help:"Prints the schema."`
	ShellCompletions kongplete.InstallCompletions `cmd:"" help:"Install/uninstall shell completions"`
	Size             size.Cmd                     `cmd:"" help:"Prints the size."`
	Split            split.Cmd                    `cmd:"" help:"Split into multiple files."`
	Transcode        transcode.Cmd                `cmd:"" help:"Re-encodes a fixture file into another format or codec."`
	Version          version.Cmd                  `cmd:"" help:"Show build version."`
}

func newLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func main() {
	var root cli
	parser := kong.Must(
		&root,
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Description("Generates and inspects Arrow fixture files covering nested, binary, null and extension columns."),
	)
	kongplete.Complete(parser, kongplete.WithPredictor("file", complete.PredictFiles("*")))

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	logger, err := newLogger(root.Verbose)
	ctx.FatalIfErrorf(err)
	defer func() {
		_ = logger.Sync()
	}()

	ctx.FatalIfErrorf(ctx.Run(logger))
}
